package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pakmandi/bazaar/internal/models"
)

// Prompt builds the promotional clip prompt from a draft listing
func Prompt(d models.ListingDraft) string {
	breed := strings.TrimSpace(d.Breed)
	if breed == "" {
		breed = "cattle"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A short promotional video of a healthy %s", breed)
	if d.Age > 0 {
		fmt.Fprintf(&b, ", %s years old", strconv.FormatFloat(d.Age, 'f', -1, 64))
	}
	if d.Gender != "" {
		fmt.Fprintf(&b, ", %s", strings.ToLower(string(d.Gender)))
	}
	if d.Weight > 0 {
		fmt.Fprintf(&b, ", weighing %s kg", strconv.FormatFloat(d.Weight, 'f', -1, 64))
	}
	if loc := strings.TrimSpace(d.Location); loc != "" {
		fmt.Fprintf(&b, ", on a farm in %s", loc)
	}
	b.WriteString(". The animal stands in warm daylight and the camera circles slowly to show its build and coat. Cinematic, realistic, high quality.")
	return b.String()
}
