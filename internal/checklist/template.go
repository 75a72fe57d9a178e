package checklist

// templateEntry is one (category, task) pair of the seeding template.
type templateEntry struct {
	Category string
	Task     string
}

// cleaningTemplate is the fixed, ordered template every new checklist is
// seeded from. It is process-wide constant data: loaded once, never varied
// per request, never mutated.
var cleaningTemplate = []templateEntry{
	{"Bedroom", "Strip and remake beds with fresh linens"},
	{"Bedroom", "Dust nightstands, dressers, and window sills"},
	{"Bedroom", "Vacuum carpet and under the bed"},
	{"Bedroom", "Check closet for left-behind guest items"},
	{"Bedroom", "Restock water bottles and welcome card"},

	{"Bathroom", "Scrub and disinfect toilet, sink, and shower"},
	{"Bathroom", "Replace towels and bath mat"},
	{"Bathroom", "Restock toilet paper, soap, and shampoo"},
	{"Bathroom", "Wipe mirror and polish fixtures"},
	{"Bathroom", "Empty trash and insert fresh liner"},

	{"Kitchen", "Wash, dry, and put away all dishes"},
	{"Kitchen", "Wipe counters, stovetop, and backsplash"},
	{"Kitchen", "Clean inside of microwave and refrigerator"},
	{"Kitchen", "Restock coffee, tea, and pantry basics"},
	{"Kitchen", "Take out trash and recycling"},

	{"Living Room", "Vacuum sofa, rugs, and floors"},
	{"Living Room", "Dust shelves, TV, and electronics"},
	{"Living Room", "Straighten cushions, throws, and decor"},
	{"Living Room", "Wipe dining table and chairs"},
	{"Living Room", "Check remote batteries and wifi card placement"},

	{"General", "Open windows and air out all rooms"},
	{"General", "Wipe door handles and light switches"},
	{"General", "Check smoke detector indicator lights"},
	{"General", "Set thermostat to standard temperature"},
	{"General", "Lock up and reset the smart door code"},
}

// TemplateSize returns the number of tasks a freshly seeded checklist has.
func TemplateSize() int {
	return len(cleaningTemplate)
}
