package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"

	"slashroute/pkg/slash"
)

// hashCommand creates a deterministic hash of a compiled descriptor. Struct
// fields encode in declaration order and map keys sorted, so equal
// descriptors hash equally.
func hashCommand(d *slash.CommandDescriptor) string {
	data, err := json.Marshal(d)
	if err != nil {
		// Choice values are primitives; this cannot fail for a compiled tree.
		panic(fmt.Sprintf("hash descriptor %s: %v", d.Name, err))
	}
	return fmt.Sprintf("%x", sha1.Sum(data))
}

// hashCommands returns the hash of every descriptor keyed by command name.
func hashCommands(ds []*slash.CommandDescriptor) map[string]string {
	out := make(map[string]string, len(ds))
	for _, d := range ds {
		out[d.Name] = hashCommand(d)
	}
	return out
}
