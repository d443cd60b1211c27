package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/report"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

type startRequest struct {
	TaskName string   `json:"task_name"`
	Project  string   `json:"project"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
}

type stopRequest struct {
	Notes string `json:"notes"`
}

type manualEntryRequest struct {
	startRequest
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type entryUpdateRequest struct {
	TaskName  *string    `json:"task_name"`
	Project   *string    `json:"project"`
	Category  *string    `json:"category"`
	Tags      []string   `json:"tags"`
	Notes     *string    `json:"notes"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type matchRequest struct {
	ProcessName string `json:"process_name"`
}

type ruleRequest struct {
	Pattern  string   `json:"pattern"`
	TaskName string   `json:"task_name"`
	Project  string   `json:"project"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type ruleUpdateRequest struct {
	Pattern  *string  `json:"pattern"`
	TaskName *string  `json:"task_name"`
	Project  *string  `json:"project"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
	Enabled  *bool    `json:"enabled"`
}

func decode(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.tracker.Entries(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseEntryFilter(r *http.Request) (tracker.EntryFilter, error) {
	query := r.URL.Query()
	filter := tracker.EntryFilter{
		Project:  query.Get("project"),
		Category: query.Get("category"),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return tracker.EntryFilter{}, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	var err error
	if filter.StartDate, err = parseDateParam(query.Get("start_date")); err != nil {
		return tracker.EntryFilter{}, err
	}
	if filter.EndDate, err = parseDateParam(query.Get("end_date")); err != nil {
		return tracker.EntryFilter{}, err
	}
	return filter, nil
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if value, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("invalid date %q", raw)
		}
	}
	return &value, nil
}

func (s *Server) handleCurrentEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.tracker.Status()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TaskName == "" {
		writeError(w, http.StatusBadRequest, "task_name is required")
		return
	}
	entry, err := s.tracker.Start(req.TaskName, tracker.StartOptions{
		Project:  req.Project,
		Category: req.Category,
		Tags:     req.Tags,
		Notes:    req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	entry, err := s.tracker.Stop(req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req manualEntryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TaskName == "" {
		writeError(w, http.StatusBadRequest, "task_name is required")
		return
	}
	entry, err := s.tracker.AddManualEntry(req.TaskName, req.StartTime, req.EndTime, tracker.StartOptions{
		Project:  req.Project,
		Category: req.Category,
		Tags:     req.Tags,
		Notes:    req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.GetEntry(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := s.tracker.EditEntry(r.PathValue("id"), tracker.EntryEdit{
		TaskName:  req.TaskName,
		Project:   req.Project,
		Category:  req.Category,
		Tags:      req.Tags,
		Notes:     req.Notes,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	removed, err := s.tracker.DeleteEntry(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.LoadProjects()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	var project model.Project
	if err := decode(r, &project); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	if err := project.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveProject(project); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.LoadCategories()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var category model.Category
	if err := decode(r, &category); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := category.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveCategory(category); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.store.GetCategory(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled") == "true"
	list, err := s.engine.Rules(enabledOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []model.ProcessRule{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Pattern == "" || req.TaskName == "" {
		writeError(w, http.StatusBadRequest, "pattern and task_name are required")
		return
	}
	rule, err := s.engine.AddRule(req.Pattern, req.TaskName, req.Project, req.Category, req.Tags)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleMatchRule(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, ok, err := s.engine.MatchProcess(req.ProcessName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"matched": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matched": true, "rule": rule})
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := s.engine.UpdateRule(r.PathValue("id"), rules.RuleUpdate{
		Pattern:  req.Pattern,
		TaskName: req.TaskName,
		Project:  req.Project,
		Category: req.Category,
		Tags:     req.Tags,
		Enabled:  req.Enabled,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	removed, err := s.engine.DeleteRule(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.tracker.Entries(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	label := r.URL.Query().Get("label")
	if label == "" {
		label = "summary"
	}
	writeJSON(w, http.StatusOK, report.Summarize(entries, label))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	dir, err := s.store.Backup(r.URL.Query().Get("label"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"backup_dir": dir})
}
