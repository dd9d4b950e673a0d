package sqlstore

import "strings"

// where accumulates AND-ed conditions for a filter. A nil id set adds no
// condition; a non-nil empty set makes the whole clause match nothing.
type where struct {
	conds []string
	args  []any
	none  bool
}

func (w *where) eq(col, v string) {
	if v == "" {
		return
	}
	w.conds = append(w.conds, col+" = ?")
	w.args = append(w.args, v)
}

func (w *where) raw(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) in(col string, vals []string) {
	if vals == nil {
		return
	}
	if len(vals) == 0 {
		w.none = true
		return
	}
	w.conds = append(w.conds, col+" IN ("+placeholders(len(vals))+")")
	for _, v := range vals {
		w.args = append(w.args, v)
	}
}

func (w *where) notIn(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	w.conds = append(w.conds, col+" NOT IN ("+placeholders(len(vals))+")")
	for _, v := range vals {
		w.args = append(w.args, v)
	}
}

// subIn adds "col IN (sub)" where sub selects by an id set. It follows the
// same nil/empty rule as in.
func (w *where) subIn(col, sub, subCol string, vals []string) {
	if vals == nil {
		return
	}
	if len(vals) == 0 {
		w.none = true
		return
	}
	w.conds = append(w.conds, col+" IN ("+sub+" WHERE "+subCol+" IN ("+placeholders(len(vals))+"))")
	for _, v := range vals {
		w.args = append(w.args, v)
	}
}

// empty reports whether no condition was added.
func (w *where) empty() bool {
	return len(w.conds) == 0 && !w.none
}

func (w *where) String() string {
	if w.none {
		return " WHERE 1 = 0"
	}
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
