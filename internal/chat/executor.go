package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leadboard/leadboard/internal/currency"
	"github.com/leadboard/leadboard/internal/leads"
	"github.com/leadboard/leadboard/pkg/logging"
)

// maxSearchResults caps how many matches search_leads reports back to
// the model.
const maxSearchResults = 5

// FunctionResult is the outcome of one executed function call. It is
// fed back to the model verbatim and surfaced to the client alongside
// the reply.
type FunctionResult struct {
	Function             string         `json:"function"`
	Arguments            map[string]any `json:"arguments,omitempty"`
	Success              bool           `json:"success"`
	Message              string         `json:"message"`
	Data                 any            `json:"data,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation,omitempty"`
	Error                string         `json:"error,omitempty"`
}

// Executor runs model-requested functions against the lead repository.
// Every call returns a result, never an error: failures are reported
// back to the model so it can explain them to the user.
type Executor struct {
	repo    leads.Repository
	pending *PendingDeletionStore
	logger  *logging.Logger
}

// NewExecutor constructs a function executor.
func NewExecutor(repo leads.Repository, pending *PendingDeletionStore, logger *logging.Logger) *Executor {
	if repo == nil {
		panic("chat: leads repository cannot be nil")
	}
	if pending == nil {
		panic("chat: pending deletion store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Executor{repo: repo, pending: pending, logger: logger.Component("executor")}
}

// Execute dispatches one function call. The lead list is the board as
// loaded at the start of the turn; it backs search scoring and the
// delete lookup.
func (e *Executor) Execute(ctx context.Context, sessionID, ownerID string, call FunctionCall, all []*leads.Lead) (result FunctionResult) {
	result = FunctionResult{Function: call.Name}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("function call panicked", "function", call.Name, "panic", r)
			result = failure(call.Name, fmt.Sprintf("internal error executing %s", call.Name))
		}
	}()

	args, err := call.ArgumentsMap()
	if err != nil {
		return failure(call.Name, fmt.Sprintf("invalid arguments: %v", err))
	}

	switch call.Name {
	case FuncSearchLeads:
		result = e.searchLeads(args, all)
	case FuncCreateLead:
		result = e.createLead(ctx, ownerID, args, all)
	case FuncUpdateLeadStatus:
		result = e.updateLeadStatus(ctx, ownerID, args, all)
	case FuncUpdateLeadData:
		result = e.updateLeadData(ctx, ownerID, args)
	case FuncDeleteLead:
		result = e.deleteLead(ctx, sessionID, args, all)
	case FuncConfirmDeleteLead:
		result = e.confirmDeleteLead(ctx, sessionID, ownerID, args)
	default:
		result = failure(call.Name, fmt.Sprintf("unknown function %q", call.Name))
	}
	// Echo the decoded call arguments so the client can show what ran.
	result.Arguments = args
	return result
}

func (e *Executor) searchLeads(args map[string]any, all []*leads.Lead) FunctionResult {
	query := stringArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return failure(FuncSearchLeads, "query is required")
	}

	matches := leads.Match(query, all)
	if len(matches) == 0 {
		return FunctionResult{
			Function: FuncSearchLeads,
			Success:  true,
			Message:  fmt.Sprintf("No leads matched %q.", query),
			Data:     []*leads.Lead{},
		}
	}
	// The message reports every match even when only the top results
	// are returned.
	total := len(matches)
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}
	return FunctionResult{
		Function: FuncSearchLeads,
		Success:  true,
		Message:  fmt.Sprintf("Found %d lead(s) matching %q.", total, query),
		Data:     matches,
	}
}

func (e *Executor) createLead(ctx context.Context, ownerID string, args map[string]any, all []*leads.Lead) FunctionResult {
	req := &leads.CreateLeadRequest{
		OwnerID: ownerID,
		Name:    stringArg(args, "name"),
		Company: stringArg(args, "company"),
		Email:   stringArg(args, "email"),
		Phone:   stringArg(args, "phone"),
		Notes:   stringArg(args, "notes"),
		Source:  stringArg(args, "source"),
		Status:  leads.Status(stringArg(args, "status")),
	}

	if raw := stringArg(args, "value"); raw != "" {
		value, err := currency.Parse(raw)
		if err != nil {
			return failure(FuncCreateLead, err.Error())
		}
		req.Value = value
	}
	if req.Status == "" {
		req.Status = leads.StatusInterest
	}
	req.CardOrder = leads.NextCardOrder(all, req.Status)

	created, err := e.repo.Create(ctx, req)
	if err != nil {
		return failure(FuncCreateLead, err.Error())
	}
	return FunctionResult{
		Function: FuncCreateLead,
		Success:  true,
		Message:  fmt.Sprintf("Created lead %q in %s.", created.Name, created.Status),
		Data:     created,
	}
}

func (e *Executor) updateLeadStatus(ctx context.Context, ownerID string, args map[string]any, all []*leads.Lead) FunctionResult {
	leadID := stringArg(args, "lead_id")
	if leadID == "" {
		return failure(FuncUpdateLeadStatus, "lead_id is required")
	}
	status := leads.Status(stringArg(args, "new_status"))
	if !status.Valid() {
		return failure(FuncUpdateLeadStatus, fmt.Sprintf("unknown status %q", status))
	}

	order := leads.NextCardOrder(all, status)
	patch := &leads.UpdateLeadPatch{Status: &status, CardOrder: &order}
	updated, err := e.repo.Update(ctx, leadID, patch, ownerID)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			return failure(FuncUpdateLeadStatus, fmt.Sprintf("lead %s not found", leadID))
		}
		return failure(FuncUpdateLeadStatus, err.Error())
	}
	return FunctionResult{
		Function: FuncUpdateLeadStatus,
		Success:  true,
		Message:  fmt.Sprintf("Moved %q to %s.", updated.Name, updated.Status),
		Data:     updated,
	}
}

func (e *Executor) updateLeadData(ctx context.Context, ownerID string, args map[string]any) FunctionResult {
	leadID := stringArg(args, "lead_id")
	if leadID == "" {
		return failure(FuncUpdateLeadData, "lead_id is required")
	}

	patch := &leads.UpdateLeadPatch{}
	if v, ok := args["name"]; ok {
		s := toString(v)
		patch.Name = &s
	}
	if v, ok := args["company"]; ok {
		s := toString(v)
		patch.Company = &s
	}
	if v, ok := args["email"]; ok {
		s := toString(v)
		patch.Email = &s
	}
	if v, ok := args["phone"]; ok {
		s := toString(v)
		patch.Phone = &s
	}
	if v, ok := args["notes"]; ok {
		s := toString(v)
		patch.Notes = &s
	}
	if v, ok := args["source"]; ok {
		s := toString(v)
		patch.Source = &s
	}
	if v, ok := args["value"]; ok {
		parsed, err := currency.Parse(toString(v))
		if err != nil {
			return failure(FuncUpdateLeadData, err.Error())
		}
		patch.Value = &parsed
	}

	updated, err := e.repo.Update(ctx, leadID, patch, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrLeadNotFound):
			return failure(FuncUpdateLeadData, fmt.Sprintf("lead %s not found", leadID))
		case errors.Is(err, leads.ErrEmptyPatch):
			return failure(FuncUpdateLeadData, "no fields to update were provided")
		default:
			return failure(FuncUpdateLeadData, err.Error())
		}
	}
	return FunctionResult{
		Function: FuncUpdateLeadData,
		Success:  true,
		Message:  fmt.Sprintf("Updated %q.", updated.Name),
		Data:     updated,
	}
}

// deleteLead records a pending deletion; the lead itself is untouched
// until the user confirms.
func (e *Executor) deleteLead(ctx context.Context, sessionID string, args map[string]any, all []*leads.Lead) FunctionResult {
	leadID := stringArg(args, "lead_id")
	if leadID == "" {
		return failure(FuncDeleteLead, "lead_id is required")
	}

	var target *leads.Lead
	for _, lead := range all {
		if lead.ID == leadID {
			target = lead
			break
		}
	}
	if target == nil {
		return failure(FuncDeleteLead, fmt.Sprintf("lead %s not found", leadID))
	}

	if err := e.pending.Put(ctx, sessionID, target); err != nil {
		e.logger.Error("pending deletion store failed", "lead_id", leadID, "error", err)
		return failure(FuncDeleteLead, "could not record the deletion request, please try again")
	}

	return FunctionResult{
		Function:             FuncDeleteLead,
		Success:              true,
		RequiresConfirmation: true,
		Message:              fmt.Sprintf("Deletion of %q requires confirmation. Ask the user to confirm before anything is removed.", target.Name),
		Data:                 target,
	}
}

// confirmDeleteLead performs the actual delete, but only when this
// session recorded a matching pending request.
func (e *Executor) confirmDeleteLead(ctx context.Context, sessionID, ownerID string, args map[string]any) FunctionResult {
	leadID := stringArg(args, "lead_id")
	if leadID == "" {
		return failure(FuncConfirmDeleteLead, "lead_id is required")
	}

	snapshot, err := e.pending.Get(ctx, sessionID, leadID)
	if err != nil {
		return failure(FuncConfirmDeleteLead, "could not check the pending deletion, please try again")
	}
	if snapshot == nil {
		return failure(FuncConfirmDeleteLead, fmt.Sprintf("no deletion of lead %s is awaiting confirmation in this session; call delete_lead first", leadID))
	}

	if err := e.repo.Delete(ctx, leadID, ownerID); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			// The row is already gone; drop the stale pending entry.
			_ = e.pending.Remove(ctx, sessionID, leadID)
			return failure(FuncConfirmDeleteLead, fmt.Sprintf("lead %s no longer exists", leadID))
		}
		// Keep the pending entry so the user can retry the confirm.
		return failure(FuncConfirmDeleteLead, err.Error())
	}

	if err := e.pending.Remove(ctx, sessionID, leadID); err != nil {
		e.logger.Warn("pending deletion cleanup failed", "lead_id", leadID, "error", err)
	}

	return FunctionResult{
		Function: FuncConfirmDeleteLead,
		Success:  true,
		Message:  fmt.Sprintf("Deleted %q.", snapshot.Name),
		Data:     snapshot,
	}
}

func failure(function, message string) FunctionResult {
	return FunctionResult{
		Function: function,
		Success:  false,
		Message:  message,
		Error:    message,
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		return toString(v)
	}
	return ""
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
