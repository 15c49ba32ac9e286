package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxParams is the Postgres limit on bind parameters in one statement.
const MaxParams = 65535

type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any, argIndex *int)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	buf.WriteString(c.column)
	buf.WriteString(" = ")
	buf.WriteString(placeholder(*argIndex))
	*args = append(*args, c.value)
	*argIndex = *argIndex + 1
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	if len(c.values) == 0 {
		buf.WriteString("1=0")
		return
	}

	buf.WriteString(c.column)
	buf.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(placeholder(*argIndex))
		*args = append(*args, v)
		*argIndex = *argIndex + 1
	}
	buf.WriteString(")")
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)

	args := make([]any, 0, len(b.where))
	argIndex := 1
	if len(b.where) > 0 {
		buf.WriteString(" WHERE ")
		for i, c := range b.where {
			if i > 0 {
				buf.WriteString(" AND ")
			}
			c.appendSQL(&buf, &args, &argIndex)
		}
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}

	return buf.String(), args, nil
}

type ConflictAction int

const (
	// ConflictFail emits no ON CONFLICT clause, so duplicates raise a unique violation.
	ConflictFail ConflictAction = iota
	ConflictIgnore
	ConflictUpdate
)

// ConflictPolicy describes what an insert does when a row with the same
// target key exists.
type ConflictPolicy struct {
	Action ConflictAction
	Target []string
	Update []string
}

func FailOnConflict() ConflictPolicy {
	return ConflictPolicy{Action: ConflictFail}
}

func IgnoreOnConflict(target ...string) ConflictPolicy {
	return ConflictPolicy{Action: ConflictIgnore, Target: target}
}

func UpdateOnConflict(target []string, update ...string) ConflictPolicy {
	return ConflictPolicy{Action: ConflictUpdate, Target: target, Update: update}
}

func (p ConflictPolicy) clause() (string, error) {
	switch p.Action {
	case ConflictFail:
		return "", nil
	case ConflictIgnore:
		if len(p.Target) == 0 {
			return "ON CONFLICT DO NOTHING", nil
		}
		return "ON CONFLICT (" + strings.Join(p.Target, ", ") + ") DO NOTHING", nil
	case ConflictUpdate:
		if len(p.Target) == 0 {
			return "", fmt.Errorf("conflict update requires a target")
		}
		if len(p.Update) == 0 {
			return "", fmt.Errorf("conflict update requires columns")
		}
		sets := make([]string, 0, len(p.Update))
		for _, col := range p.Update {
			sets = append(sets, col+" = EXCLUDED."+col)
		}
		return "ON CONFLICT (" + strings.Join(p.Target, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", "), nil
	default:
		return "", fmt.Errorf("unknown conflict action %d", p.Action)
	}
}

type InsertBuilder struct {
	table    string
	columns  []string
	rows     [][]any
	conflict ConflictPolicy
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

func (b *InsertBuilder) OnConflict(policy ConflictPolicy) *InsertBuilder {
	b.conflict = policy
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}
	if len(b.rows)*len(b.columns) > MaxParams {
		return "", nil, fmt.Errorf("insert into %s binds %d params, limit is %d", b.table, len(b.rows)*len(b.columns), MaxParams)
	}
	conflict, err := b.conflict.clause()
	if err != nil {
		return "", nil, fmt.Errorf("insert into %s: %w", b.table, err)
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	argIndex := 1
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(placeholder(argIndex))
			args = append(args, value)
			argIndex++
		}
		buf.WriteString(")")
	}

	if conflict != "" {
		buf.WriteString(" ")
		buf.WriteString(conflict)
	}

	return buf.String(), args, nil
}

func placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}
