package notification

import (
	"bytes"
	htmltmpl "html/template"
	"strings"
	texttmpl "text/template"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/core/schedule"
)

var (
	digestTextTmpl = texttmpl.Must(texttmpl.New("digestText").Parse(
		"The following classes were automatically cancelled:\n\n" +
			"{{range .}}Date: {{.Date.Format \"2006-01-02\"}}, Subject: {{.Subject}}, Group: {{.Group}}, Faculty: {{.Faculty}}\n{{end}}",
	))

	digestHTMLTmpl = htmltmpl.Must(htmltmpl.New("digestHTML").Parse(
		`<p>The following classes were automatically cancelled because attendance was not taken before the deadline:</p>
<ul>
{{range .}}<li><strong>{{.Date.Format "2006-01-02"}}</strong> &mdash; {{.Subject}} ({{.Group}}), {{.Faculty}}</li>
{{end}}</ul>`,
	))

	lowAttendanceHTMLTmpl = htmltmpl.Must(htmltmpl.New("lowAttendanceHTML").Parse(
		`<p>Dear {{.Student.Name}},</p>
<p>Your attendance in <strong>{{.Subject.Name}}</strong> is <strong>{{printf "%.2f" .Summary.Percentage}}%</strong>
({{.Summary.Attended}} of {{.Summary.Held}} sessions), which is below the required minimum of {{.Required}}%.</p>
<p>Please attend your upcoming classes regularly.</p>`,
	))
)

func renderDigestText(digest []schedule.DigestEntry) string {
	var buff strings.Builder
	if err := digestTextTmpl.Execute(&buff, digest); err != nil {
		return ""
	}
	return buff.String()
}

func renderDigestHTML(digest []schedule.DigestEntry) string {
	var buff bytes.Buffer
	if err := digestHTMLTmpl.Execute(&buff, digest); err != nil {
		return ""
	}
	return buff.String()
}

func renderLowAttendanceHTML(student roster.Student, subject roster.Subject, sum attendance.Summary, settings core.Settings) string {
	var buff bytes.Buffer
	data := struct {
		Student  roster.Student
		Subject  roster.Subject
		Summary  attendance.Summary
		Required int
	}{student, subject, sum, settings.RequiredPercentage}
	if err := lowAttendanceHTMLTmpl.Execute(&buff, data); err != nil {
		return ""
	}
	return buff.String()
}
