package domain

import (
	"fmt"
	"strings"
	"time"
)

// DiaryEntry is a single journal entry.
type DiaryEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Favorite  bool      `json:"favorite,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultDiaryCategory is used when an entry is saved without a category.
const DefaultDiaryCategory = "personal"

// NewDiaryEntry validates e. Title and content are both required.
func NewDiaryEntry(e DiaryEntry) (DiaryEntry, error) {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return DiaryEntry{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(e.Content) == "" {
		return DiaryEntry{}, fmt.Errorf("%w: content is required", ErrValidation)
	}
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		e.Category = DefaultDiaryCategory
	}
	return e, nil
}

// DiaryCategory groups diary entries under a name and icon.
type DiaryCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon Icon   `json:"icon"`
}

// NewDiaryCategory validates the name and falls back to the default icon.
func NewDiaryCategory(name string, icon Icon) (DiaryCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DiaryCategory{}, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if !icon.Valid() {
		icon = IconBookOpen
	}
	return DiaryCategory{Name: name, Icon: icon}, nil
}

// Icon names a category glyph from a closed set.
type Icon string

const (
	IconBookOpen  Icon = "BookOpen"
	IconLightbulb Icon = "Lightbulb"
	IconBrain     Icon = "Brain"
	IconStar      Icon = "Star"
	IconUser      Icon = "User"
	IconHeart     Icon = "Heart"
	IconSparkles  Icon = "Sparkles"
	IconTarget    Icon = "Target"
	IconCoffee    Icon = "Coffee"
	IconMusic     Icon = "Music"
)

// Icons lists the selectable icons.
var Icons = []Icon{
	IconBookOpen, IconLightbulb, IconBrain, IconStar, IconUser,
	IconHeart, IconSparkles, IconTarget, IconCoffee, IconMusic,
}

// Valid reports whether i belongs to the icon set.
func (i Icon) Valid() bool {
	for _, known := range Icons {
		if i == known {
			return true
		}
	}
	return false
}

// IconFor resolves the icon of the named category. Unknown categories and
// unknown icons fall back to IconBookOpen.
func IconFor(categories []DiaryCategory, name string) Icon {
	for _, c := range categories {
		if c.Name != name {
			continue
		}
		if c.Icon.Valid() {
			return c.Icon
		}
		break
	}
	return IconBookOpen
}
