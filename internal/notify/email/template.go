package email

import "html/template"

// quoteTmpl renders the notification body. Values are HTML-escaped by html/template.
var quoteTmpl = template.Must(template.New("quote").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6; background-color: #f9f9f9; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background: white; border-radius: 8px; box-shadow: 0 0 10px rgba(0,0,0,0.1); overflow: hidden;">
    <div style="background-color: #b22222; color: white; padding: 16px; text-align: center;">
      <h2 style="margin: 0;">{{.SiteName}}</h2>
      <p style="margin: 0;">New Quote Request</p>
    </div>
    <div style="padding: 20px;">
      {{- range .Fields}}
      <p><strong>{{.Label}}:</strong> {{.Value}}</p>
      {{- end}}
      <hr style="border:none; border-top:1px solid #ddd; margin:20px 0;">
      <h4>Project Description:</h4>
      <p style="white-space: pre-line;">{{.Description}}</p>
      <hr style="border:none; border-top:1px solid #ddd; margin:20px 0;">
      <p style="font-size: 12px; color: #555;">Submitted on: {{.SubmittedOn}}</p>
    </div>
    {{- if .Footer}}
    <div style="background-color: #f1f1f1; text-align: center; padding: 10px;">
      <p style="margin: 0; font-size: 12px; color: #777;">&copy; {{.Year}} {{.Footer}}</p>
    </div>
    {{- end}}
  </div>
</div>
`))

type field struct {
	Label string
	Value string
}

type quoteView struct {
	SiteName    string
	Fields      []field
	Description string
	SubmittedOn string
	Year        int
	Footer      string
}
