package entities

// Department describes one hospital department. Key is the identifier used
// in the live store's specialists mapping; Label is the display name.
type Department struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Departments is the fixed catalog of departments hospitals report
// specialist counts for. Keys match the external store schema.
var Departments = []Department{
	{Key: "general", Label: "General Medicine"},
	{Key: "cardiac", Label: "Cardiology"},
	{Key: "neurology", Label: "Neurology"},
	{Key: "orthopedic", Label: "Orthopedics"},
	{Key: "pulmonology", Label: "Pulmonology"},
	{Key: "nephrology", Label: "Nephrology"},
	{Key: "urology", Label: "Urology"},
	{Key: "dermatology", Label: "Dermatology"},
	{Key: "pediatrics", Label: "Pediatrics"},
	{Key: "gynecology", Label: "Gynecology"},
	{Key: "ent", Label: "ENT"},
	{Key: "ophthalmology", Label: "Ophthalmology"},
	{Key: "psychiatry", Label: "Psychiatry"},
	{Key: "oncology", Label: "Oncology"},
	{Key: "radiology", Label: "Radiology"},
	{Key: "anesthesiology", Label: "Anesthesiology"},
}

// IsKnownDepartment reports whether key is in the department catalog
func IsKnownDepartment(key string) bool {
	for _, d := range Departments {
		if d.Key == key {
			return true
		}
	}
	return false
}
