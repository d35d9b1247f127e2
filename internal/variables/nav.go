package variables

// NavItem is one entry of the settings sidebar. Headings have no link.
type NavItem struct {
	Key     string
	Title   string
	Heading bool
}

func title(key, t string) NavItem   { return NavItem{Key: key, Title: t} }
func heading(key, t string) NavItem { return NavItem{Key: key, Title: t, Heading: true} }

var adminNav = []NavItem{
	title("general", "General Settings"),
	title("import-export", "Import/Export"),
	title("forms", "Forms"),
	title("fields", "Fields"),

	heading("behavior-heading", "Behavior"),
	title("notifications", "Email Notifications"),
	title("sent-notifications", "Sent Notifications"),
	title("statuses", "Statuses"),
	title("submissions", "Submissions"),
	title("spam", "Spam"),

	heading("appearance-heading", "Appearance"),
	title("stencils", "Stencils"),
	title("form-templates", "Form Templates"),
	title("email-templates", "Email Templates"),
	title("pdf-templates", "PDF Templates"),

	heading("integrations-heading", "Integrations"),
	title("captchas", "Captchas"),
	title("address-providers", "Address Providers"),
	title("elements", "Elements"),
	title("email-marketing", "Email Marketing"),
	title("crm", "CRM"),
	title("webhooks", "Webhooks"),
	title("miscellaneous", "Miscellaneous"),
}

var restrictedNav = []NavItem{
	title("import-export", "Import/Export"),

	heading("integrations-heading", "Integrations"),
	title("address-providers", "Address Providers"),
	title("elements", "Elements"),
	title("email-marketing", "Email Marketing"),
	title("crm", "CRM"),
	title("webhooks", "Webhooks"),
	title("miscellaneous", "Miscellaneous"),
}

var migrations = []struct {
	plugin string
	item   NavItem
}{
	{"freeform", title("migrate/freeform", "Freeform")},
	{"sprout-forms", title("migrate/sprout-forms", "Sprout Forms")},
}

// SettingsNavItems lists the settings sidebar. Admin-only sections are
// dropped when admin changes are disallowed, and migration entries appear
// only for installed source plugins.
func (v *Variables) SettingsNavItems() []NavItem {
	base := restrictedNav
	if v.plugin.Settings.AllowAdminChanges {
		base = adminNav
	}
	items := append([]NavItem(nil), base...)

	var plugins []NavItem
	for _, m := range migrations {
		if v.plugin.IsPluginInstalledAndEnabled(m.plugin) {
			plugins = append(plugins, m.item)
		}
	}
	if len(plugins) > 0 {
		items = append(items, heading("migrations-heading", "Migrations"))
		items = append(items, plugins...)
	}

	return append(items,
		heading("support-heading", "Support"),
		title("support", "Get Support"),
	)
}
