// Package samples ships ready-made schemas used for seeding stores, demos and
// tests.
package samples

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-mixinform/pkg/schema"
)

var (
	smdPackages         = []any{"0201", "0402", "0603", "0805", "1206"}
	throughHolePackages = []any{"DIP", "TO-220", "TO-92", "SIP"}
)

// All returns every sample schema keyed by its seed name.
func All() map[string]schema.Schema {
	return map[string]schema.Schema{
		"sku":         SKU(),
		"batch":       Batch(),
		"electronics": Electronics(),
		"decimal":     Decimal(),
	}
}

// Names lists the sample schema names in sorted order.
func Names() []string {
	names := make([]string, 0, 4)
	for name := range All() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func packageField() schema.Field {
	return schema.Field{
		Name: "package",
		Kind: schema.FieldKindEnum,
		Options: []string{
			"0201", "0402", "0603", "0805", "1206",
			"DIP", "TO-220", "TO-92", "SIP",
		},
	}
}

func eq(field string, value any) schema.Condition {
	return schema.Compare{Field: field, Op: schema.OpEq, Value: value}
}

func in(field string, values []any) schema.Condition {
	return schema.Compare{Field: field, Op: schema.OpIn, Value: values}
}

func electronicPackage() schema.Mixin {
	return schema.Mixin{
		Name:   "ElectronicPackage",
		Fields: []schema.Field{packageField()},
		Children: []schema.ChildMixin{
			{Mixin: "SMD", Trigger: in("package", smdPackages)},
			{Mixin: "ThroughHole", Trigger: in("package", throughHolePackages)},
		},
	}
}

func throughHole() schema.Mixin {
	return schema.Mixin{
		Name:   "ThroughHole",
		Fields: []schema.Field{{Name: "wire_gauge", Kind: schema.FieldKindNumber}},
		Children: []schema.ChildMixin{
			{Mixin: "HighCurrentWire", Trigger: schema.Compare{Field: "wire_gauge", Op: schema.OpLt, Value: 20.0}},
		},
	}
}

func highCurrentWire() schema.Mixin {
	return schema.Mixin{
		Name: "HighCurrentWire",
		Fields: []schema.Field{
			{Name: "material", Kind: schema.FieldKindEnum, Options: []string{"copper", "nichrome", "kanthal"}},
		},
	}
}

func packageIntersections() []schema.IntersectionRule {
	return []schema.IntersectionRule{
		{
			When: []string{"Resistor", "SMD"},
			Adds: []schema.Field{{Name: "temp_coefficient", Kind: schema.FieldKindUnit, Unit: "ppm/°C"}},
		},
		{
			When: []string{"Capacitor", "SMD"},
			Adds: []schema.Field{{Name: "dielectric_type", Kind: schema.FieldKindEnum, Options: []string{"C0G", "X7R", "Y5V"}}},
		},
		{
			When: []string{"Resonator", "SMD"},
			Adds: []schema.Field{{Name: "frequency_stability", Kind: schema.FieldKindUnit, Unit: "ppm"}},
		},
	}
}

// Electronics is the component schema: Resistor, Capacitor and Resonator
// roots lead to a package choice, which splits into SMD or ThroughHole; thin
// wire gauges on through-hole parts add a HighCurrentWire mixin.
func Electronics() schema.Schema {
	component := func(name string, trigger string, fields ...schema.Field) schema.Mixin {
		return schema.Mixin{
			Name:   name,
			Fields: fields,
			Children: []schema.ChildMixin{
				{Mixin: "ElectronicPackage", Trigger: schema.Compare{Field: trigger, Op: schema.OpGte, Value: 0.0}},
			},
		}
	}

	return schema.Schema{
		RootMixins: []string{"Resistor", "Capacitor", "Resonator"},
		Mixins: map[string]schema.Mixin{
			"Resistor": component("Resistor", "resistance",
				schema.Field{Name: "resistance", Kind: schema.FieldKindUnit, Unit: "Ω"},
				schema.Field{Name: "tolerance", Kind: schema.FieldKindEnum, Options: []string{"1%", "5%", "10%"}},
			),
			"Capacitor": component("Capacitor", "capacitance",
				schema.Field{Name: "capacitance", Kind: schema.FieldKindUnit, Unit: "F"},
				schema.Field{Name: "voltage_rating", Kind: schema.FieldKindUnit, Unit: "V"},
			),
			"Resonator": component("Resonator", "frequency",
				schema.Field{Name: "frequency", Kind: schema.FieldKindUnit, Unit: "Hz"},
				schema.Field{Name: "load_capacitance", Kind: schema.FieldKindUnit, Unit: "pF"},
			),
			"ElectronicPackage": electronicPackage(),
			"SMD":               {Name: "SMD"},
			"ThroughHole":       throughHole(),
			"HighCurrentWire":   highCurrentWire(),
		},
		Intersections: packageIntersections(),
	}
}

// SKU is the item schema: an item type selector triggers component mixins,
// which trigger the package choice once their primary value is set.
func SKU() schema.Schema {
	component := func(name, trigger string, fields ...schema.Field) schema.Mixin {
		return schema.Mixin{
			Name:   name,
			Fields: fields,
			Children: []schema.ChildMixin{
				{Mixin: "ElectronicPackage", Trigger: schema.IsSet{Field: trigger}},
			},
		}
	}

	return schema.Schema{
		RootMixins: []string{"ItemTypeSelector"},
		Mixins: map[string]schema.Mixin{
			"ItemTypeSelector": {
				Name:   "ItemTypeSelector",
				Fields: []schema.Field{{Name: "item_type", Kind: schema.FieldKindText}},
				Children: []schema.ChildMixin{
					{Mixin: "Resistor", Trigger: eq("item_type", "Resistor")},
					{Mixin: "Capacitor", Trigger: eq("item_type", "Capacitor")},
					{Mixin: "Resonator", Trigger: eq("item_type", "Resonator")},
					{Mixin: "Resin", Trigger: eq("item_type", "Resin")},
				},
			},
			"Resistor": component("Resistor", "resistance",
				schema.Field{Name: "resistance", Kind: schema.FieldKindUnit, Unit: "Ω"},
				schema.Field{Name: "tolerance", Kind: schema.FieldKindEnum, Options: []string{"1%", "5%", "10%"}},
			),
			"Capacitor": component("Capacitor", "capacitance",
				schema.Field{Name: "capacitance", Kind: schema.FieldKindUnit, Unit: "F"},
				schema.Field{Name: "voltage_rating", Kind: schema.FieldKindUnit, Unit: "V"},
			),
			"Resonator": component("Resonator", "frequency",
				schema.Field{Name: "frequency", Kind: schema.FieldKindUnit, Unit: "Hz"},
				schema.Field{Name: "load_capacitance", Kind: schema.FieldKindUnit, Unit: "pF"},
			),
			"Resin": {
				Name: "Resin",
				Fields: []schema.Field{
					{Name: "resin_type", Kind: schema.FieldKindEnum, Options: []string{"UV", "Epoxy", "Polyurethane"}},
					{Name: "volume", Kind: schema.FieldKindUnit, Unit: "mL"},
				},
			},
			"ElectronicPackage": electronicPackage(),
			"SMD":               {Name: "SMD"},
			"ThroughHole":       throughHole(),
			"HighCurrentWire":   highCurrentWire(),
		},
		Intersections: packageIntersections(),
	}
}

// Batch tracks provenance: the source field selects supplier-specific
// mixins.
func Batch() schema.Schema {
	text := func(name string) schema.Field {
		return schema.Field{Name: name, Kind: schema.FieldKindText}
	}
	cost := schema.Field{Name: "cost_per_unit", Kind: schema.FieldKindUnit, Unit: "$"}
	distributor := func(name string, extra ...schema.Field) schema.Mixin {
		fields := []schema.Field{text("order_number"), text("ship_date"), cost}
		return schema.Mixin{Name: name, Fields: append(fields, extra...)}
	}

	suppliers := []string{"DigiKey", "Amazon", "eBay", "Mouser", "LCSC"}
	children := make([]schema.ChildMixin, 0, len(suppliers))
	for _, name := range suppliers {
		children = append(children, schema.ChildMixin{Mixin: name, Trigger: eq("source", name)})
	}

	return schema.Schema{
		RootMixins: []string{"SourceSelector"},
		Mixins: map[string]schema.Mixin{
			"SourceSelector": {
				Name:     "SourceSelector",
				Fields:   []schema.Field{text("source")},
				Children: children,
			},
			"DigiKey": distributor("DigiKey"),
			"Amazon": {
				Name:   "Amazon",
				Fields: []schema.Field{text("order_id"), text("delivery_date"), text("return_deadline")},
			},
			"eBay": {
				Name:   "eBay",
				Fields: []schema.Field{text("listing_id"), text("seller_rating"), text("condition_notes")},
			},
			"Mouser": distributor("Mouser"),
			"LCSC":   distributor("LCSC", text("lcsc_part_number")),
		},
		Intersections: []schema.IntersectionRule{},
	}
}

// DecimalDigits is the depth of the Decimal schema chain.
const DecimalDigits = 5

// Decimal is a deliberately deep chain used to exercise transitive
// activation: unchecking finalN reveals digit N+1.
func Decimal() schema.Schema {
	digits := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	mixins := make(map[string]schema.Mixin, DecimalDigits)
	for i := 1; i <= DecimalDigits; i++ {
		name := fmt.Sprintf("Digit%d", i)
		mixin := schema.Mixin{
			Name: name,
			Fields: []schema.Field{
				{Name: fmt.Sprintf("digit%d", i), Kind: schema.FieldKindEnum, Options: digits},
				{Name: fmt.Sprintf("final%d", i), Kind: schema.FieldKindBool},
			},
		}
		if i < DecimalDigits {
			mixin.Children = []schema.ChildMixin{
				{Mixin: fmt.Sprintf("Digit%d", i+1), Trigger: eq(fmt.Sprintf("final%d", i), false)},
			}
		}
		mixins[name] = mixin
	}

	return schema.Schema{
		RootMixins: []string{"Digit1"},
		Mixins:     mixins,
		Intersections: []schema.IntersectionRule{
			{
				When: []string{"Digit1", "Digit3"},
				Adds: []schema.Field{{Name: "three_digit_note", Kind: schema.FieldKindText}},
			},
			{
				When: []string{"Digit1", "Digit5"},
				Adds: []schema.Field{{Name: "five_digit_celebration", Kind: schema.FieldKindEnum, Options: []string{"🎉", "🎊", "🥳", "✨"}}},
			},
		},
	}
}
