package repository

import (
	"regexp"
	"strings"
)

// DuplicateRule marks an insert target whose uniqueness conflicts should be
// ignored instead of surfaced. Column "*" matches any insert into Table.
type DuplicateRule struct {
	Table  string
	Column string
}

// DefaultDuplicateRules covers the forms users double-submit.
var DefaultDuplicateRules = []DuplicateRule{
	{Table: "parts", Column: "part_number"},
	{Table: "job_cards", Column: "job_no"},
	{Table: "estimates", Column: "invoice_no"},
	{Table: "invoices", Column: "inv_no"},
	{Table: "low_stock_alerts", Column: "*"},
}

var insertPattern = regexp.MustCompile("(?is)^\\s*INSERT\\s+INTO\\s+[`\"\\[]?([A-Za-z_][A-Za-z0-9_]*)[`\"\\]]?\\s*(?:\\(([^)]*)\\))?")

// RewriteDuplicateTolerant turns a plain INSERT into INSERT OR IGNORE when it
// targets one of rules. The second return reports the matched table.
func RewriteDuplicateTolerant(query string, rules []DuplicateRule) (string, string, bool) {
	m := insertPattern.FindStringSubmatchIndex(query)
	if m == nil {
		return query, "", false
	}
	table := query[m[2]:m[3]]

	var columns []string
	if m[4] >= 0 {
		for _, c := range strings.Split(query[m[4]:m[5]], ",") {
			c = strings.Trim(strings.TrimSpace(c), "`\"[]")
			columns = append(columns, strings.ToLower(c))
		}
	}

	for _, rule := range rules {
		if !strings.EqualFold(rule.Table, table) {
			continue
		}
		if !ruleMatchesColumns(rule, columns) {
			continue
		}
		start := len(query) - len(strings.TrimLeft(query, " \t\r\n"))
		return query[:start] + "INSERT OR IGNORE" + query[start+len("INSERT"):], table, true
	}
	return query, table, false
}

func ruleMatchesColumns(rule DuplicateRule, columns []string) bool {
	// Without a column list every column is written, the unique one included.
	if rule.Column == "*" || len(columns) == 0 {
		return true
	}
	for _, c := range columns {
		if c == strings.ToLower(rule.Column) {
			return true
		}
	}
	return false
}
