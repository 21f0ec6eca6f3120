package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.English, language.Hungarian}

var matcher = language.NewMatcher(supported)

// Message keys double as the English text.
const (
	msgGreeting       = "Dear %s,"
	msgAssigned       = "You have been assigned to the activity %[1]s on %[2]s."
	msgAssignedTeam   = "Your team %[3]s has been assigned the activity %[1]s on %[2]s."
	msgView           = "View %s"
	msgDeadline       = "Deadline: %s"
	msgDone           = "%[1]s marked the activity %[2]s on %[3]s as done."
	msgFeedback       = "Feedback:"
	msgAssignedByUser = "Assigned by %s"
)

var hungarian = map[string]string{
	msgGreeting:       "Kedves %s!",
	msgAssigned:       "Önt hozzárendelték a(z) %[2]s alatti %[1]s tevékenységhez.",
	msgAssignedTeam:   "A(z) %[3]s csapatot hozzárendelték a(z) %[2]s alatti %[1]s tevékenységhez.",
	msgView:           "%s megtekintése",
	msgDeadline:       "Határidő: %s",
	msgDone:           "%[1]s késznek jelölte a(z) %[3]s alatti %[2]s tevékenységet.",
	msgFeedback:       "Visszajelzés:",
	msgAssignedByUser: "Hozzárendelte: %s",
}

// dateLayouts formats deadlines per language.
var dateLayouts = map[language.Tag]string{
	language.English:   "Jan 2, 2006",
	language.Hungarian: "2006. 01. 02.",
}

func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, hu := range hungarian {
		if err := b.SetString(language.English, key, key); err != nil {
			return nil, err
		}
		if err := b.SetString(language.Hungarian, key, hu); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// matchLanguage maps a user's lang setting ("hu_HU", "en-US", "") to a
// supported tag, falling back to def.
func matchLanguage(lang string, def language.Tag) language.Tag {
	if lang == "" {
		return def
	}
	tag, err := language.Parse(lang)
	if err != nil {
		// Accept POSIX style "hu_HU".
		tag, err = language.Parse(underscoreToDash(lang))
		if err != nil {
			return def
		}
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return def
	}
	return supported[idx]
}

func underscoreToDash(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}
