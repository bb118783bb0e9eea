package comment

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// columns lists the searchable columns and whether they hold integers.
var columns = map[string]bool{
	"id":       true,
	"version":  true,
	"text":     false,
	"path":     false,
	"revision": false,
	"line":     true,
	"author":   false,
	"time":     true,
}

var operators = map[string]string{
	"":       "=",
	"lt":     "<",
	"gt":     ">",
	"lte":    "<=",
	"gte":    ">=",
	"ne":     "!=",
	"in":     "IN",
	"prefix": "LIKE",
}

// ParseFilter turns search arguments into a WHERE clause.
//
// An argument named after a column filters on equality ("path=src/a.go").
// A "__op" suffix selects another operator: lt, gt, lte, gte, ne, in
// (comma-separated values) or prefix. Arguments that name no column are
// ignored, so page arguments can be forwarded verbatim.
func ParseFilter(args url.Values) (string, []interface{}, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var values []interface{}
	for _, key := range keys {
		name, op, _ := strings.Cut(key, "__")
		isInt, ok := columns[name]
		if !ok {
			continue
		}
		sqlOp, ok := operators[op]
		if !ok {
			continue
		}

		for _, raw := range args[key] {
			switch op {
			case "in":
				parts := strings.Split(raw, ",")
				placeholders := make([]string, len(parts))
				for i, p := range parts {
					v, err := columnValue(name, strings.TrimSpace(p), isInt)
					if err != nil {
						return "", nil, err
					}
					placeholders[i] = "?"
					values = append(values, v)
				}
				conds = append(conds, fmt.Sprintf("%s IN (%s)", name, strings.Join(placeholders, ", ")))
			case "prefix":
				conds = append(conds, name+` LIKE ? ESCAPE '\'`)
				values = append(values, escapeLike(raw)+"%")
			default:
				v, err := columnValue(name, raw, isInt)
				if err != nil {
					return "", nil, err
				}
				conds = append(conds, fmt.Sprintf("%s %s ?", name, sqlOp))
				values = append(values, v)
			}
		}
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), values, nil
}

func columnValue(name, raw string, isInt bool) (interface{}, error) {
	if !isInt {
		if name == "path" {
			return strings.Trim(raw, "/"), nil
		}
		return raw, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s filter value %q: %w", name, raw, err)
	}
	return n, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
