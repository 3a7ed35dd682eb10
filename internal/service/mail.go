package service

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"leadtrack/internal/entity"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type emailView struct {
	Name     string
	SiteName string
	Link     string
	ValidFor string
}

var emailSubjects = map[entity.TokenType]string{
	entity.TokenTypeActivation:    "Activate Your Account",
	entity.TokenTypeResetPassword: "Reset Your Password",
}

var emailTemplates = map[entity.TokenType]string{
	entity.TokenTypeActivation:    "activation_email",
	entity.TokenTypeResetPassword: "reset_password_email",
}

func renderTokenEmail(user *entity.User, purpose entity.TokenType, siteName, link string) (EmailMessage, error) {
	name, ok := emailTemplates[purpose]
	if !ok {
		return EmailMessage{}, fmt.Errorf("no email template for token type %q", purpose)
	}
	displayName := user.FullName()
	if displayName == "" {
		displayName = user.Username
	}
	view := emailView{
		Name:     displayName,
		SiteName: siteName,
		Link:     link,
		ValidFor: "1 hour",
	}

	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", view); err != nil {
		return EmailMessage{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", view); err != nil {
		return EmailMessage{}, fmt.Errorf("render %s text: %w", name, err)
	}
	return EmailMessage{
		To:      user.Email,
		Subject: emailSubjects[purpose],
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
