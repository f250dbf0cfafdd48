package theme

import (
	"fmt"
)

// Banner returns the CLI banner: a small house over the tool name.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		yellow + "        /\\\n" +
		"       /  \\      " + reset + cyan + "OUTREACH" + reset + yellow + "\n" +
		"      /____\\\n" +
		"      | [] |__\n" +
		"      |____|__|\n" + reset +
		"   persönliche Erstnachrichten für private Verkäufer\n"
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
