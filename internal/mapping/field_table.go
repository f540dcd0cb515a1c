// Package mapping translates show fields between the local schema and the
// Airtable table. FieldTable is the single source of truth for field names.
package mapping

// FieldKind selects the value coercion applied to a mapped field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindTime
	KindDecimal
)

// FieldMapping links one local field name to its Airtable column.
// Aliases are extra remote names accepted on inbound translation only.
type FieldMapping struct {
	Local    string
	Remote   string
	Aliases  []string
	Kind     FieldKind
	Optional bool
}

// Local field names.
const (
	FieldTitle       = "title"
	FieldDateTime    = "date_time"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldPresenter   = "presenter"
	FieldPrice       = "price"
	FieldTicketURL   = "ticket_url"
)

// FieldTable lists every translated field. Aliases cover the older lowercase
// table layout (title, date_time, comedian, ticket_price, ticket_url).
var FieldTable = []FieldMapping{
	{Local: FieldTitle, Remote: "Title", Aliases: []string{"title"}, Kind: KindString},
	{Local: FieldDateTime, Remote: "Date", Aliases: []string{"date_time", "date"}, Kind: KindTime},
	{Local: FieldLocation, Remote: "Location", Aliases: []string{"location"}, Kind: KindString},
	{Local: FieldDescription, Remote: "Description", Aliases: []string{"description"}, Kind: KindString},
	{Local: FieldPresenter, Remote: "Presenter", Aliases: []string{"presenter", "Comedian", "comedian"}, Kind: KindString, Optional: true},
	{Local: FieldPrice, Remote: "Price", Aliases: []string{"price", "Ticket Price", "ticket_price"}, Kind: KindDecimal, Optional: true},
	{Local: FieldTicketURL, Remote: "Ticket Link", Aliases: []string{"ticket_url", "ticket_link"}, Kind: KindString, Optional: true},
}

var byLocal = func() map[string]FieldMapping {
	m := make(map[string]FieldMapping, len(FieldTable))
	for _, f := range FieldTable {
		m[f.Local] = f
	}
	return m
}()

// Lookup returns the mapping for a local field name.
func Lookup(local string) (FieldMapping, bool) {
	f, ok := byLocal[local]
	return f, ok
}

// RemoteName returns the Airtable column for a local field, or "" if unmapped.
func RemoteName(local string) string {
	return byLocal[local].Remote
}

// remoteValue finds the first non-nil value under the remote name or an alias.
func (f FieldMapping) remoteValue(fields map[string]interface{}) (interface{}, bool) {
	if v, ok := fields[f.Remote]; ok && v != nil {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := fields[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
