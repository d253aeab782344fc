package contact

// NotFound is the value stored in a field that could not be extracted.
const NotFound = "Not Found"

// Field names, in report order.
const (
	FieldName     = "Name"
	FieldJobTitle = "Job Title"
	FieldCompany  = "Company"
	FieldPhone    = "Phone"
	FieldEmail    = "Email"
)

// Fields lists every key of a Record in the order they are written.
var Fields = []string{FieldName, FieldJobTitle, FieldCompany, FieldPhone, FieldEmail}

// Record holds the contact fields recovered from one business card.
type Record struct {
	Name     string `json:"name"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// NewRecord returns a record with every field set to sentinel.
func NewRecord(sentinel string) Record {
	return Record{Name: sentinel, JobTitle: sentinel, Company: sentinel, Phone: sentinel, Email: sentinel}
}

// Get returns the value for a field name from Fields. Unknown keys return "".
func (r Record) Get(key string) string {
	switch key {
	case FieldName:
		return r.Name
	case FieldJobTitle:
		return r.JobTitle
	case FieldCompany:
		return r.Company
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	}
	return ""
}

// Pairs returns the record as ordered key/value pairs.
func (r Record) Pairs() [][2]string {
	out := make([][2]string, 0, len(Fields))
	for _, k := range Fields {
		out = append(out, [2]string{k, r.Get(k)})
	}
	return out
}
