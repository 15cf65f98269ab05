package manifest

import "strings"

// Role is what a manifest column holds.
type Role string

// Column roles every delimited manifest must provide.
const (
	RoleBarcode  Role = "barcode"
	RoleName     Role = "name"
	RoleQuantity Role = "quantity"
)

// Roles lists the required roles in reporting order.
var Roles = []Role{RoleBarcode, RoleName, RoleQuantity}

// ColumnMatcher decides whether a header column holds a role.
// Column names arrive trimmed and case-folded.
type ColumnMatcher interface {
	MatchColumn(name string) bool
}

// KeywordMatcher matches a column whose name contains any of its keywords.
type KeywordMatcher []string

// MatchColumn implements ColumnMatcher.
func (k KeywordMatcher) MatchColumn(name string) bool {
	for _, kw := range k {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// With returns a new matcher with extra keywords appended.
func (k KeywordMatcher) With(keywords ...string) KeywordMatcher {
	out := make(KeywordMatcher, 0, len(k)+len(keywords))
	out = append(out, k...)
	for _, kw := range keywords {
		out = append(out, fold(kw))
	}
	return out
}

// Default keyword sets, English plus Korean spreadsheet headings.
var (
	BarcodeKeywords  = KeywordMatcher{"barcode", "바코드", "코드", "번호", "품번"}
	NameKeywords     = KeywordMatcher{"name", "상품", "품명", "제품"}
	QuantityKeywords = KeywordMatcher{"quantity", "수량", "재고", "qty"}
)

// DefaultMatchers returns the built-in matcher for every role.
func DefaultMatchers() map[Role]ColumnMatcher {
	return map[Role]ColumnMatcher{
		RoleBarcode:  BarcodeKeywords,
		RoleName:     NameKeywords,
		RoleQuantity: QuantityKeywords,
	}
}

// locateColumns returns the index of the first column matching each role.
func locateColumns(columns []string, matchers map[Role]ColumnMatcher) (map[Role]int, error) {
	found := make(map[Role]int, len(Roles))
	var foundRoles, missing []Role

	for _, role := range Roles {
		m := matchers[role]
		idx := -1
		if m != nil {
			for i, col := range columns {
				if m.MatchColumn(col) {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			missing = append(missing, role)
			continue
		}
		found[role] = idx
		foundRoles = append(foundRoles, role)
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Header: columns, Found: foundRoles, Missing: missing}
	}
	return found, nil
}
