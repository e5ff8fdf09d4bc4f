package chat

import "github.com/leadboard/leadboard/internal/leads"

// Function names the model is allowed to call.
const (
	FuncSearchLeads       = "search_leads"
	FuncCreateLead        = "create_lead"
	FuncUpdateLeadStatus  = "update_lead_status"
	FuncUpdateLeadData    = "update_lead_data"
	FuncDeleteLead        = "delete_lead"
	FuncConfirmDeleteLead = "confirm_delete_lead"
)

// LeadFunctions declares the tools exposed to the model on the intent
// round. Monetary values are declared as strings so the model can pass
// through user phrasing like "2.5k" or "1.000,50" untouched.
func LeadFunctions() []FunctionDefinition {
	statuses := make([]string, 0, len(leads.AllStatuses()))
	for _, s := range leads.AllStatuses() {
		statuses = append(statuses, string(s))
	}

	return []FunctionDefinition{
		{
			Name:        FuncSearchLeads,
			Description: "Search the user's leads by name, company, or email. Returns the best matches.",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"query": {Type: "string", Description: "Name, company, or email fragment to search for."},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        FuncCreateLead,
			Description: "Create a new lead on the board.",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"name":    {Type: "string", Description: "Contact name for the lead."},
					"company": {Type: "string", Description: "Company the lead works for."},
					"email":   {Type: "string", Description: "Contact email address."},
					"phone":   {Type: "string", Description: "Contact phone number."},
					"value":   {Type: "string", Description: "Deal value as stated by the user, e.g. '2.5k' or '$2,500.50'."},
					"notes":   {Type: "string", Description: "Free-form notes about the lead."},
					"source":  {Type: "string", Description: "Where the lead came from, e.g. LinkedIn, Referral."},
					"status":  {Type: "string", Enum: statuses, Description: "Initial board column. Defaults to Interest."},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        FuncUpdateLeadStatus,
			Description: "Move a lead to a different board column.",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"lead_id":    {Type: "string", Description: "ID of the lead to move."},
					"new_status": {Type: "string", Enum: statuses, Description: "Target board column."},
				},
				Required: []string{"lead_id", "new_status"},
			},
		},
		{
			Name:        FuncUpdateLeadData,
			Description: "Update one or more fields of an existing lead. Only the provided fields change.",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"lead_id": {Type: "string", Description: "ID of the lead to update."},
					"name":    {Type: "string"},
					"company": {Type: "string"},
					"email":   {Type: "string"},
					"phone":   {Type: "string"},
					"value":   {Type: "string", Description: "New deal value as stated by the user."},
					"notes":   {Type: "string"},
					"source":  {Type: "string"},
				},
				Required: []string{"lead_id"},
			},
		},
		{
			Name:        FuncDeleteLead,
			Description: "Request deletion of a lead. Deletion is not performed until the user confirms.",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"lead_id": {Type: "string", Description: "ID of the lead to delete."},
				},
				Required: []string{"lead_id"},
			},
		},
		{
			Name:        FuncConfirmDeleteLead,
			Description: "Permanently delete a lead the user has already confirmed deleting in this session.",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"lead_id": {Type: "string", Description: "ID of the lead whose deletion was confirmed."},
				},
				Required: []string{"lead_id"},
			},
		},
	}
}
