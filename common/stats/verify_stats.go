package stats

import (
	"fmt"
	"strings"
	"testing"
)

// RuleChecker compares a rendered stat value ('got') against an expected one.
type RuleChecker struct {
	name    string
	checker func(got, expected interface{}) bool
}

// Rule pairs a checker with the value it is checked against.
type Rule struct {
	Checker RuleChecker
	Value   interface{}
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

var Int64EqTest = RuleChecker{name: "Int64EqTest", checker: func(got, expected interface{}) bool {
	g, ok1 := asInt64(got)
	e, ok2 := asInt64(expected)
	return ok1 && ok2 && g == e
}}

var Int64GTETest = RuleChecker{name: "Int64GTETest", checker: func(got, expected interface{}) bool {
	g, ok1 := asInt64(got)
	e, ok2 := asInt64(expected)
	return ok1 && ok2 && g >= e
}}

var FloatGTTest = RuleChecker{name: "FloatGTTest", checker: func(got, expected interface{}) bool {
	g, ok1 := got.(float64)
	e, ok2 := expected.(float64)
	return ok1 && ok2 && g > e
}}

var DoesNotExistTest = RuleChecker{name: "DoesNotExistTest", checker: func(got, _ interface{}) bool {
	return got == nil
}}

// VerifyStats checks every key in contains against its rule, reporting all
// mismatches through t.Error. Only Finagle-style registries are supported.
func VerifyStats(tag string, statsRegistry StatsRegistry, t *testing.T, contains map[string]Rule) {
	reg, ok := statsRegistry.(*finagleStatsRegistry)
	if !ok {
		t.Errorf("%s: VerifyStats requires a registry from NewFinagleStatsRegistry, got %T", tag, statsRegistry)
		return
	}
	rendered := reg.MarshalAll()

	var failures []string
	for key, rule := range contains {
		got := rendered[key]
		if rule.Checker.checker(got, rule.Value) {
			continue
		}
		if rule.Checker.name == DoesNotExistTest.name {
			failures = append(failures, fmt.Sprintf("%s: found stat entry when there should not be one", key))
		} else {
			failures = append(failures, fmt.Sprintf("%s: got %v, expected to pass %s with %v", key, got, rule.Checker.name, rule.Value))
		}
	}
	if len(failures) > 0 {
		pretty, _ := reg.MarshalJSONPretty()
		t.Errorf("%s: stats registry error:\n%s\nregistry:\n%s", tag, strings.Join(failures, "\n"), pretty)
	}
}
