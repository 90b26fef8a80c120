package ingest

import "github.com/superteamvn/stvbot/pkg/utils"

// Preprocess trims text and collapses any whitespace run into a single space.
func Preprocess(text string) string {
	return utils.CollapseSpaces(text)
}
