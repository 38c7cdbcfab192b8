package main

// NavItem is one entry in the header navigation.
type NavItem struct {
	Name          string // "global", "following", "explore", "videos", "profile"
	Title         string
	Href          string
	Active        bool
	RequiresLogin bool
}

// NavContext provides context for building nav items
type NavContext struct {
	LoggedIn   bool
	ActivePage string
}

var navItems = []NavItem{
	{Name: "global", Title: "Global", Href: "/"},
	{Name: "following", Title: "Following", Href: "/?feed=following", RequiresLogin: true},
	{Name: "explore", Title: "Explore", Href: "/explore"},
	{Name: "videos", Title: "Videos", Href: "/videos"},
}

// GetNavItems returns the nav items visible in ctx with the active one marked.
func GetNavItems(ctx NavContext) []NavItem {
	items := make([]NavItem, 0, len(navItems))
	for _, item := range navItems {
		if item.RequiresLogin && !ctx.LoggedIn {
			continue
		}
		item.Active = item.Name == ctx.ActivePage
		items = append(items, item)
	}
	return items
}
