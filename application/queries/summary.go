package queries

import (
	"fmt"
	"strconv"
	"strings"

	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/entities"
	"carddeps/domain/core/valueobjects"
)

// Display limits
const (
	ChecklistNamesMaxRunes = 36
	TooltipMaxNames        = 5
)

// Badge is a short display string with optional color and tooltip
type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	Title string `json:"title"`
}

// DependencyBadges renders the depends-on and blocking badges of an item
func DependencyBadges(edges aggregates.EdgeSet) (depends Badge, blocking Badge) {
	if edges.IsBlocked() {
		depends = Badge{
			Text:  fmt.Sprintf("⛓ Depends on %d", edges.DependsOn.Len()),
			Color: "red",
			Title: "This item is blocked by prerequisite items.",
		}
	} else {
		depends = Badge{Text: "⛓ No deps", Title: "No dependencies set for this item."}
	}

	if edges.IsBlocking() {
		blocking = Badge{
			Text:  fmt.Sprintf("🚧 Blocking %d", edges.Blocks.Len()),
			Color: "yellow",
			Title: "This item blocks other items.",
		}
	} else {
		blocking = Badge{Text: "🚧 Not blocking", Title: "Not blocking any items."}
	}
	return depends, blocking
}

// DetailBadges renders the count badges of the item detail view.
// Empty sets produce no badge.
func DetailBadges(edges aggregates.EdgeSet) []Badge {
	badges := []Badge{}
	if n := edges.DependsOn.Len(); n > 0 {
		badges = append(badges, Badge{Title: "Depends on", Text: strconv.Itoa(n), Color: "yellow"})
	}
	if n := edges.Blocks.Len(); n > 0 {
		badges = append(badges, Badge{Title: "Blocked by", Text: strconv.Itoa(n), Color: "red"})
	}
	return badges
}

// ChecklistSummary renders checklist progress as "☑︎ done/total • names"
func ChecklistSummary(checklists []entities.Checklist, mode valueobjects.DisplayMode) Badge {
	var total, done int
	var all, upcoming []string
	for _, cl := range checklists {
		for _, ci := range cl.CheckItems {
			total++
			all = append(all, ci.Name)
			if ci.IsComplete() {
				done++
			} else {
				upcoming = append(upcoming, ci.Name)
			}
		}
	}

	badge := Badge{Title: "Checklist summary"}
	if total == 0 {
		badge.Text = "☑︎ No checklist"
		return badge
	}

	var names []string
	switch mode {
	case valueobjects.DisplayModeAll:
		names = all
	case valueobjects.DisplayModeUpcoming:
		names = upcoming
	default:
		if len(upcoming) > 0 {
			names = upcoming[:1]
		}
	}

	badge.Text = fmt.Sprintf("☑︎ %d/%d", done, total)
	if len(names) > 0 {
		badge.Text += " • " + Truncate(strings.Join(names, " • "), ChecklistNamesMaxRunes)
	}
	return badge
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// DependencyLink is one entry of the dependency list on the item back
type DependencyLink struct {
	ID   valueobjects.ItemID `json:"id"`
	Name string              `json:"name"`
	URL  string              `json:"url"`
}

// DependencyList resolves names for ids, falling back to the id itself
func DependencyList(ids []valueobjects.ItemID, known map[valueobjects.ItemID]entities.Item, baseURL string) []DependencyLink {
	base := strings.TrimRight(baseURL, "/")
	links := make([]DependencyLink, 0, len(ids))
	for _, id := range ids {
		link := DependencyLink{ID: id, Name: id.String(), URL: base + "/c/" + id.String()}
		if item, ok := known[id]; ok {
			link.Name = item.DisplayName()
			if item.URL != "" {
				link.URL = item.URL
			}
		}
		links = append(links, link)
	}
	return links
}

// NamesTooltip lists up to TooltipMaxNames names under a heading
func NamesTooltip(heading string, links []DependencyLink) string {
	if len(links) == 0 {
		return ""
	}
	shown := links
	if len(shown) > TooltipMaxNames {
		shown = shown[:TooltipMaxNames]
	}
	names := make([]string, len(shown))
	for i, l := range shown {
		names[i] = l.Name
	}
	return heading + ":\n- " + strings.Join(names, "\n- ")
}
