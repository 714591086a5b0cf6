package hrs

// The platform knows exactly four bed categories, each with a fixed numeric
// identifier. The string codes are how callers and the mirror address them.
const (
	CategoryLager  = "lager"  // dormitory
	CategoryBetten = "betten" // bunk beds
	CategoryDZ     = "dz"     // double rooms
	CategorySonder = "sonder" // special
)

var categoryIDs = map[string]int{
	CategoryLager:  1,
	CategoryBetten: 2,
	CategoryDZ:     3,
	CategorySonder: 4,
}

var categoryCodes = map[int]string{
	1: CategoryLager,
	2: CategoryBetten,
	3: CategoryDZ,
	4: CategorySonder,
}

// CategoryCodes lists the codes in their fixed vendor order.
func CategoryCodes() []string {
	return []string{CategoryLager, CategoryBetten, CategoryDZ, CategorySonder}
}

// CategoryID resolves a code to the vendor's numeric id.
func CategoryID(code string) (int, bool) {
	id, ok := categoryIDs[code]
	return id, ok
}

// CategoryCode resolves a vendor id back to a code.
func CategoryCode(id int) (string, bool) {
	code, ok := categoryCodes[id]
	return code, ok
}
