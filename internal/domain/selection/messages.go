package selection

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages are shown to property managers as-is.

var printer = message.NewPrinter(language.AmericanEnglish)

func usd(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return "$" + printer.Sprintf("%.2f", f)
}

func plural(n int) string {
	if n == 1 {
		return "property"
	}
	return "properties"
}

func msgNoTarget() string {
	return "Enter a target amount greater than $0 to optimize."
}

func msgNoProperties() string {
	return "No properties available to advance against."
}

func msgNoneEligible(minMonths int) string {
	return printer.Sprintf("No eligible properties: each property needs a positive rent and at least %d months remaining on its lease.", minMonths)
}

func msgAllExact(n int, target decimal.Decimal) string {
	return printer.Sprintf("All %d eligible %s at maximum terms match the %s target exactly.", n, plural(n), usd(target))
}

func msgShortfall(n int, total, short, target decimal.Decimal) string {
	return printer.Sprintf("Using all %d eligible %s at maximum terms reaches %s, which is %s short of the %s target.",
		n, plural(n), usd(total), usd(short), usd(target))
}

func msgExact(n int, target decimal.Decimal) string {
	return printer.Sprintf("Matched the %s target exactly with %d %s.", usd(target), n, plural(n))
}

func msgOver(over decimal.Decimal) string {
	return "Optimized to full months • " + usd(over) + " above target"
}
