package handler

import (
	"codebrick-site/backend/internal/intake"
	"codebrick-site/backend/internal/platform/httpx"
)

// Field names are accepted in camelCase (JSON clients) and snake_case (the site's HTML forms).

func contactInput(f httpx.Fields) intake.ContactInput {
	return intake.ContactInput{
		Name:    f.Get("name"),
		Email:   f.Get("email"),
		Message: f.Get("message"),
	}
}

func quoteInput(f httpx.Fields) intake.QuoteInput {
	return intake.QuoteInput{
		Name:        f.Get("name"),
		Email:       f.Get("email"),
		Phone:       f.Get("phone"),
		ProjectType: f.Get("projectType", "project_type"),
		Location:    f.Get("location"),
		SiteStatus:  f.Get("siteStatus", "site_status"),
		ProjectSize: f.Get("projectSize", "project_size"),
		Urgency:     f.Get("urgency"),
		HireStatus:  f.Get("hireStatus", "hire_status"),
		Timeline:    f.Get("timeline"),
		Description: f.Get("description"),
	}
}
