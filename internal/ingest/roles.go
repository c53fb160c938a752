package ingest

// Role identifies a logical input file in the reconciliation pipeline.
type Role string

const (
	RoleSendMails Role = "send_mails"
	RoleOpenMails Role = "open_mails"
	RoleContacts  Role = "contacts"
)

// Canonical column names used across the pipeline after header aliasing.
const (
	ColRecipientName  = "recipient_name"
	ColSentDate       = "sent_date"
	ColRecipientEmail = "Recipient Email"
	ColDomain         = "domain"
	ColViews          = "Views"
	ColClicks         = "Clicks"
	ColEmail          = "Email"
	ColCompanyURL     = "Company URL"
	ColName           = "Name"
	ColTitle          = "Title"
)

// headerAlias maps an observed header to its canonical name. Pure data, no
// behavior; matching is case-insensitive on the accepted side.
type headerAlias struct {
	Accepted  string
	Canonical string
}

// roleAliases lists, per role, the raw headers the source systems are known
// to emit. A raw header already matching a canonical name is accepted
// directly and needs no entry here.
var roleAliases = map[Role][]headerAlias{
	RoleSendMails: {
		{"Recipient", ColRecipientName},
		{"Recipient Name", ColRecipientName},
		{"Sent Date", ColSentDate},
		{"Date Sent", ColSentDate},
		{"date_sent", ColSentDate},
		{"recipient_email", ColRecipientEmail},
		{"Email", ColRecipientEmail},
		{"Domain", ColDomain},
	},
	RoleOpenMails: {
		{"Recipient", ColRecipientName},
		{"Recipient Name", ColRecipientName},
		{"Sent Date", ColSentDate},
		{"Date Sent", ColSentDate},
		{"date_sent", ColSentDate},
		{"views", ColViews},
		{"Opens", ColViews},
		{"open_count", ColViews},
		{"clicks", ColClicks},
		{"Click Count", ColClicks},
	},
	RoleContacts: {
		{"email", ColEmail},
		{"Email Address", ColEmail},
		{"company_url", ColCompanyURL},
		{"Company Url", ColCompanyURL},
		{"Website", ColCompanyURL},
		{"name", ColName},
		{"Full Name", ColName},
		{"title", ColTitle},
		{"Job Title", ColTitle},
	},
}

// requiredColumns lists the canonical columns each role must carry after
// aliasing. Contacts keeps everything else as passthrough.
var requiredColumns = map[Role][]string{
	RoleSendMails: {ColRecipientName, ColSentDate, ColRecipientEmail},
	RoleOpenMails: {ColRecipientName, ColSentDate, ColViews, ColClicks},
	RoleContacts:  {ColEmail},
}

// roleLabels are the human-readable names used in validation messages.
var roleLabels = map[Role]string{
	RoleSendMails: "Send Mails",
	RoleOpenMails: "Open Mails",
	RoleContacts:  "Contacts",
}

// RequiredRoles returns the roles a full pipeline run needs, in processing
// order.
func RequiredRoles() []Role {
	return []Role{RoleSendMails, RoleOpenMails, RoleContacts}
}
