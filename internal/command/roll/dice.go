package roll

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	tokenRegex = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	validOps   = map[string]bool{"+": true, "-": true, "*": true, "/": true}
)

const (
	maxDice    = 100
	maxSides   = 1000
	maxLiteral = 1_000_000
)

var (
	ErrEmptyFormula = errors.New("can't parse your formula, try something like `2d6+1d4*2-3`")
	ErrDivideByZero = errors.New("can't divide by zero")
	ErrDanglingOp   = errors.New("can't multiply or divide by nothing")
	ErrTooLarge     = errors.New("the result is too large")
)

// Intn returns a uniform number in [0, n).
type Intn func(n int) int

type term struct {
	value  int
	desc   string
	op     string
	isDice bool
}

// Result is an evaluated formula.
type Result struct {
	Formula string
	// Calculation shows each term with its individual rolls.
	Calculation string
	Total       int
	HasDice     bool
}

// Evaluate rolls formula. Multiplication and division bind to the term on
// their left before sums are taken.
func Evaluate(formula string, intn Intn) (Result, error) {
	formula = strings.ReplaceAll(formula, " ", "")
	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 {
		return Result{}, ErrEmptyFormula
	}

	var terms []term
	currentOp := "+"
	for _, token := range tokens {
		if validOps[token] {
			currentOp = token
			continue
		}
		val, desc, err := evaluateToken(token, intn)
		if err != nil {
			return Result{}, fmt.Errorf("failed to evaluate `%s`: %w", token, err)
		}
		terms = append(terms, term{
			value:  val,
			desc:   desc,
			op:     currentOp,
			isDice: strings.Contains(desc, "["),
		})
	}

	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		if len(merged) == 0 {
			return Result{}, ErrDanglingOp
		}
		prev := merged[len(merged)-1]
		merged = merged[:len(merged)-1]

		var newVal int
		if t.op == "/" {
			if t.value == 0 {
				return Result{}, ErrDivideByZero
			}
			newVal = prev.value / t.value
		} else {
			var ok bool
			if newVal, ok = mul(prev.value, t.value); !ok {
				return Result{}, ErrTooLarge
			}
		}
		merged = append(merged, term{
			value:  newVal,
			desc:   fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc),
			op:     prev.op,
			isDice: prev.isDice || t.isDice,
		})
	}

	res := Result{Formula: formula}
	var details []string
	for _, t := range merged {
		if len(details) > 0 {
			details = append(details, fmt.Sprintf(" %s ", t.op))
		}
		details = append(details, t.desc)
		res.HasDice = res.HasDice || t.isDice

		var ok bool
		switch t.op {
		case "+":
			res.Total, ok = add(res.Total, t.value)
		case "-":
			res.Total, ok = add(res.Total, -t.value)
		default:
			return Result{}, fmt.Errorf("unknown operator: %s", t.op)
		}
		if !ok {
			return Result{}, ErrTooLarge
		}
	}
	res.Calculation = strings.Join(details, "")
	return res, nil
}

func evaluateToken(token string, intn Intn) (int, string, error) {
	matches := diceRegex.FindStringSubmatch(token)
	if matches == nil {
		num, err := strconv.Atoi(token)
		if errors.Is(err, strconv.ErrRange) || num > maxLiteral {
			return 0, "", fmt.Errorf("too big. max number is %d", maxLiteral)
		}
		if err != nil {
			return 0, "", errors.New("not a number or dice")
		}
		return num, fmt.Sprintf("`%d`", num), nil
	}

	count := 1
	if matches[1] != "" {
		n, err := strconv.Atoi(matches[1])
		if err != nil || n < 1 {
			return 0, "", errors.New("invalid dice count")
		}
		count = n
	}
	sides, err := strconv.Atoi(matches[2])
	if err != nil || sides < 2 {
		return 0, "", errors.New("invalid dice sides")
	}
	if count > maxDice || sides > maxSides {
		return 0, "", fmt.Errorf("too big. max %d dice, %d sides", maxDice, maxSides)
	}

	sum := 0
	rolls := make([]string, 0, count)
	for range count {
		r := intn(sides) + 1
		sum += r
		rolls = append(rolls, strconv.Itoa(r))
	}
	return sum, fmt.Sprintf("`%s` [%s]", token, strings.Join(rolls, ", ")), nil
}

func mul(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	return p, p/b == a
}

func add(a, b int) (int, bool) {
	s := a + b
	return s, (b >= 0) == (s >= a)
}
