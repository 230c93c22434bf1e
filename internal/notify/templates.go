package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// MessageContext carries the lead fields templates interpolate. FirstName is
// derived once so every template greets the same way.
type MessageContext struct {
	Name            string
	FirstName       string
	Service         string
	ServiceText     string
	QuoteAmount     float64
	ReviewLink      string
	Score           int
	Priority        string
	AppointmentDate time.Time
}

// NewMessageContext derives the display fields from raw lead values.
func NewMessageContext(name, service string) MessageContext {
	first := name
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		first = name[:idx]
	}
	return MessageContext{
		Name:        name,
		FirstName:   first,
		Service:     service,
		ServiceText: serviceDisplay(service),
	}
}

func serviceDisplay(service string) string {
	switch service {
	case "deck":
		return "deck"
	case "pergola":
		return "pergola"
	case "patio":
		return "patio"
	case "fence":
		return "fence"
	case "outdoor_kitchen":
		return "outdoor kitchen"
	case "landscaping":
		return "landscaping"
	default:
		return "outdoor project"
	}
}

type emailData struct {
	Title    string
	Heading  string
	Body     template.HTML
	CTAURL   string
	CTALabel string
}

func renderEmail(data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func paragraphs(lines ...string) template.HTML {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString("<p>")
		b.WriteString(template.HTMLEscapeString(line))
		b.WriteString("</p>")
	}
	return template.HTML(b.String())
}

// WelcomeSMS is sent minutes after a new submission.
func WelcomeSMS(mc MessageContext) string {
	return fmt.Sprintf("Hi %s, this is Bobby from Backyard Bobby's! Thanks for reaching out about your %s. I'll personally review your project and get back to you within one business day. Questions in the meantime? Just reply here.",
		mc.FirstName, mc.ServiceText)
}

// FollowupSMS nudges leads nobody has contacted within a day.
func FollowupSMS(mc MessageContext) string {
	return fmt.Sprintf("Hi %s, Bobby here. Still thinking about that %s? I'd love to walk you through options and ballpark pricing. Reply with a good time to call, or just call us back anytime.",
		mc.FirstName, mc.ServiceText)
}

// AdminStaleLeadSMS alerts the owner that a lead aged out uncontacted.
func AdminStaleLeadSMS(mc MessageContext) string {
	return fmt.Sprintf("Heads up: lead %s (%s, priority %s) has had no contact for 24h. Score dropped to %d.",
		mc.Name, mc.ServiceText, mc.Priority, mc.Score)
}

// AdminHotLeadSMS alerts the owner the moment a hot lead arrives.
func AdminHotLeadSMS(mc MessageContext) string {
	return fmt.Sprintf("Hot lead: %s wants a %s. Score %d. Call them first.",
		mc.Name, mc.ServiceText, mc.Score)
}

func QuoteFollowupSMS(mc MessageContext) string {
	return fmt.Sprintf("Hi %s, just checking in on the %s quote we sent over. Happy to adjust scope or talk through the numbers. Anything I can answer?",
		mc.FirstName, mc.ServiceText)
}

func QuoteFollowupEmail(mc MessageContext) (subject, body string, err error) {
	subject = "Any questions about your quote?"
	lines := []string{
		fmt.Sprintf("Hi %s, your %s quote has been waiting a couple days and I wanted to check in.", mc.FirstName, mc.ServiceText),
		"If the numbers aren't quite right, we can adjust the scope or phase the work. Just reply and let me know.",
	}
	if mc.QuoteAmount > 0 {
		lines = append(lines, fmt.Sprintf("For reference, the quoted amount was $%.2f.", mc.QuoteAmount))
	}
	body, err = renderEmail(emailData{
		Title:   subject,
		Heading: "Your quote is still good",
		Body:    paragraphs(lines...),
	})
	return subject, body, err
}

// AppointmentReminderSMS fires the day before a scheduled visit.
func AppointmentReminderSMS(mc MessageContext) string {
	return fmt.Sprintf("Reminder: Bobby is scheduled to visit tomorrow for your %s consultation. Reply C to confirm or R to reschedule.", mc.ServiceText)
}

func AppointmentReminderEmail(mc MessageContext) (subject, body string, err error) {
	subject = fmt.Sprintf("Your %s consultation is tomorrow", mc.ServiceText)
	lines := []string{
		fmt.Sprintf("Hi %s, quick reminder that Bobby will be out tomorrow for your %s consultation.", mc.FirstName, mc.ServiceText),
	}
	if !mc.AppointmentDate.IsZero() {
		lines = append(lines, fmt.Sprintf("We have you down for %s.", mc.AppointmentDate.Format("Monday, January 2 at 3:04 PM")))
	}
	lines = append(lines, "If anything has come up, reply to this email or give us a call and we'll find a new time.")
	body, err = renderEmail(emailData{
		Title:   subject,
		Heading: "See you tomorrow",
		Body:    paragraphs(lines...),
	})
	return subject, body, err
}

func ReviewRequestSMS(mc MessageContext) string {
	msg := fmt.Sprintf("Hi %s, hope you're loving the new %s! If you have 60 seconds, a quick review helps our small crew a ton.", mc.FirstName, mc.ServiceText)
	if mc.ReviewLink != "" {
		msg += " " + mc.ReviewLink
	}
	return msg
}

func ReviewRequestEmail(mc MessageContext) (subject, body string, err error) {
	subject = "How did we do?"
	body, err = renderEmail(emailData{
		Title:   subject,
		Heading: fmt.Sprintf("Enjoying the new %s?", mc.ServiceText),
		Body: paragraphs(
			fmt.Sprintf("It was a pleasure building for you, %s. If you're happy with how everything turned out, a short review would mean the world to our crew.", mc.FirstName),
		),
		CTAURL:   mc.ReviewLink,
		CTALabel: "Leave a review",
	})
	return subject, body, err
}

// ReengagementEmail goes to leads that went quiet for a month.
func ReengagementEmail(mc MessageContext) (subject, body string, err error) {
	subject = fmt.Sprintf("Still thinking about that %s?", mc.ServiceText)
	body, err = renderEmail(emailData{
		Title:   subject,
		Heading: "We saved your project details",
		Body: paragraphs(
			fmt.Sprintf("Hi %s, it's been a little while since we talked about your %s.", mc.FirstName, mc.ServiceText),
			"Our schedule is opening up and material pricing has been favorable lately. If the project is still on your mind, reply and we'll pick up right where we left off.",
		),
	})
	return subject, body, err
}
