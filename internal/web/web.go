// Package web holds the embedded page templates and their view models.
package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/models"
	"github.com/learningcenter/marketing-site/internal/presenter"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names rendered by the page handlers
const (
	TemplateLanding   = "landing.html"
	TemplateSignUp    = "sign_up.html"
	TemplateSignIn    = "sign_in.html"
	TemplatePrivacy   = "privacy.html"
	TemplateTerms     = "terms.html"
	TemplateCookie    = "cookie.html"
	TemplateDashboard = "dashboard.html"
)

// PageData is the model every page template receives
type PageData struct {
	Site          config.SiteConfig
	Title         string
	ReturnTo      string
	Redirect      string
	EffectiveDate string
	UserID        string
	Banner        presenter.BannerView
	Categories    []CategoryView
	Policy        *PolicyView
}

// PolicyView is the settings panel of the cookie policy page
type PolicyView struct {
	presenter.PolicyPageView
	Categories  []CategoryView
	SavedNotice bool
}

// CategoryView is one row of a preferences form
type CategoryView struct {
	Name        models.CookieCategory
	Label       string
	Description string
	Enabled     bool
	Required    bool
}

var shortDescriptions = map[models.CookieCategory]string{
	models.CategoryEssential:  "Required for the website to function.",
	models.CategoryFunctional: "Remember choices you make.",
	models.CategoryAnalytics:  "Help us understand how you use the site.",
	models.CategoryMarketing:  "Used to display relevant ads.",
}

var policyDescriptions = map[models.CookieCategory]string{
	models.CategoryEssential:  "Necessary for the website to function. Cannot be disabled.",
	models.CategoryFunctional: "Allow the website to remember choices you make (such as your user name, language or the region you are in).",
	models.CategoryAnalytics:  "Help us understand how visitors interact with the website by collecting and reporting information anonymously.",
	models.CategoryMarketing:  "Used to track visitors across websites to display ads that are relevant and engaging for the individual user.",
}

var labels = map[models.CookieCategory]string{
	models.CategoryEssential:  "Essential Cookies",
	models.CategoryFunctional: "Functional Cookies",
	models.CategoryAnalytics:  "Analytics Cookies",
	models.CategoryMarketing:  "Marketing Cookies",
}

// BannerCategories builds the rows of the banner's preferences panel
func BannerCategories(prefs models.ConsentPreferences) []CategoryView {
	return categories(prefs, shortDescriptions)
}

// PolicyCategories builds the rows of the cookie policy settings panel
func PolicyCategories(prefs models.ConsentPreferences) []CategoryView {
	return categories(prefs, policyDescriptions)
}

func categories(prefs models.ConsentPreferences, descriptions map[models.CookieCategory]string) []CategoryView {
	all := append([]models.CookieCategory{models.CategoryEssential}, models.ConfigurableCategories...)
	views := make([]CategoryView, 0, len(all))
	for _, category := range all {
		views = append(views, CategoryView{
			Name:        category,
			Label:       labels[category],
			Description: descriptions[category],
			Enabled:     prefs.Enabled(category),
			Required:    category == models.CategoryEssential,
		})
	}
	return views
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return tmpl, nil
}
