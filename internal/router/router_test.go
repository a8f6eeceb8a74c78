package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap"

	"okusuri/backend/internal/db"
	"okusuri/backend/internal/handler"
	"okusuri/backend/internal/notify"
	"okusuri/backend/internal/reminder"
	"okusuri/backend/internal/repository"
	"okusuri/backend/internal/router"
	"okusuri/backend/internal/service"
	"okusuri/backend/internal/speech"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type medicationsEnvelope struct {
	Medications []struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		ScheduledTime string `json:"scheduledTime"`
		Taken         bool   `json:"taken"`
		Postponed     bool   `json:"postponed"`
	} `json:"medications"`
}

type reminderEnvelope struct {
	Reminder struct {
		State   string `json:"state"`
		Current *struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"current"`
		AllTaken    bool `json:"allTaken"`
		Medications []struct {
			Taken     bool `json:"taken"`
			Postponed bool `json:"postponed"`
		} `json:"medications"`
		Results []struct {
			ContactName string `json:"contactName"`
			Method      string `json:"method"`
			Status      string `json:"status"`
		} `json:"notificationResults"`
		SuccessCount int `json:"successCount"`
		TotalCount   int `json:"totalCount"`
	} `json:"reminder"`
	Started bool `json:"started"`
}

type onboardingEnvelope struct {
	Onboarding struct {
		CurrentStep string          `json:"currentStep"`
		Completed   bool            `json:"completed"`
		Permissions map[string]bool `json:"permissions"`
	} `json:"onboarding"`
}

type contactsEnvelope struct {
	Contacts []struct {
		Name            string `json:"name"`
		PreferredMethod string `json:"preferredMethod"`
	} `json:"contacts"`
}

func TestMedicationReminderFlow(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "taro@example.com", "123456")

	// Collect one family contact during onboarding so the dispatch has a
	// recipient, then complete to persist it.
	status, _ := requestJSON(t, engine, http.MethodPost, "/api/onboarding/family-setup", user.Token, map[string]interface{}{
		"enabled": true,
		"method":  "email",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on family-setup, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodPost, "/api/onboarding/contacts", user.Token, map[string]string{
		"kind":            "family",
		"name":            "田中 花子",
		"relationship":    "娘",
		"email":           "hanako@example.com",
		"preferredMethod": "email",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on add contact, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodPost, "/api/onboarding/complete", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on complete, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/api/medications", user.Token, map[string]interface{}{
		"medications": []map[string]interface{}{
			{"name": "血圧の薬", "dosage": "1錠", "times": []string{"08:00"}},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on add medication, got %d: %s", status, string(body))
	}
	var created medicationsEnvelope
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("unmarshal created medications: %v", err)
	}
	if len(created.Medications) != 1 {
		t.Fatalf("expected 1 medication, got %d", len(created.Medications))
	}
	if created.Medications[0].Name != "血圧の薬 (1錠)" {
		t.Fatalf("unexpected medication name %q", created.Medications[0].Name)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/reminder/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reminder start, got %d", status)
	}
	var started reminderEnvelope
	if err := json.Unmarshal(body, &started); err != nil {
		t.Fatalf("unmarshal reminder start: %v", err)
	}
	if !started.Started {
		t.Fatal("expected reminder to start")
	}
	if started.Reminder.State != "reminding" {
		t.Fatalf("expected reminding state, got %s", started.Reminder.State)
	}
	if started.Reminder.Current == nil || started.Reminder.Current.Name != "血圧の薬 (1錠)" {
		t.Fatalf("unexpected current medication: %+v", started.Reminder.Current)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/reminder/taken", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on taken, got %d", status)
	}
	var taken reminderEnvelope
	if err := json.Unmarshal(body, &taken); err != nil {
		t.Fatalf("unmarshal taken: %v", err)
	}
	if taken.Reminder.State != "idle" {
		t.Fatalf("expected idle after taken, got %s", taken.Reminder.State)
	}
	if !taken.Reminder.AllTaken {
		t.Fatal("expected all medications taken")
	}
	if taken.Reminder.SuccessCount != 1 || taken.Reminder.TotalCount != 1 {
		t.Fatalf("expected 1/1 notifications, got %d/%d", taken.Reminder.SuccessCount, taken.Reminder.TotalCount)
	}
	if taken.Reminder.Results[0].Method != "メール" {
		t.Fatalf("expected メール method, got %s", taken.Reminder.Results[0].Method)
	}

	// A second tap must not dispatch again.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/reminder/taken", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on repeat taken, got %d", status)
	}
	var repeat reminderEnvelope
	if err := json.Unmarshal(body, &repeat); err != nil {
		t.Fatalf("unmarshal repeat taken: %v", err)
	}
	if repeat.Reminder.TotalCount != 1 {
		t.Fatalf("expected notification count unchanged, got %d", repeat.Reminder.TotalCount)
	}

	// Everything is taken, so another start is refused.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/reminder/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on second start, got %d", status)
	}
	var restart reminderEnvelope
	if err := json.Unmarshal(body, &restart); err != nil {
		t.Fatalf("unmarshal second start: %v", err)
	}
	if restart.Started {
		t.Fatal("expected start to be refused when all taken")
	}
}

func TestReminderPostponeFlow(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "hanako@example.com", "123456")

	addMedication(t, engine, user.Token, "胃腸薬", "12:00")

	status, _ := requestJSON(t, engine, http.MethodPost, "/api/reminder/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/api/reminder/postpone", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on postpone, got %d", status)
	}
	var postponed reminderEnvelope
	if err := json.Unmarshal(body, &postponed); err != nil {
		t.Fatalf("unmarshal postpone: %v", err)
	}
	if postponed.Reminder.State != "idle" {
		t.Fatalf("expected idle after postpone, got %s", postponed.Reminder.State)
	}
	if len(postponed.Reminder.Medications) != 1 || !postponed.Reminder.Medications[0].Postponed {
		t.Fatalf("expected postponed medication, got %+v", postponed.Reminder.Medications)
	}
	if postponed.Reminder.Medications[0].Taken {
		t.Fatal("postpone must not mark the medication taken")
	}

	// The dose is still due, so a reminder can start again right away.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/reminder/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on restart, got %d", status)
	}
	var restarted reminderEnvelope
	if err := json.Unmarshal(body, &restarted); err != nil {
		t.Fatalf("unmarshal restart: %v", err)
	}
	if !restarted.Started {
		t.Fatal("expected restart after postpone")
	}
}

func TestReminderEventEndpoint(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "jiro@example.com", "123456")

	addMedication(t, engine, user.Token, "ビタミン剤", "09:00")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/reminder/event", user.Token, map[string]string{
		"event": "reminder_fired",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reminder_fired, got %d", status)
	}
	var fired reminderEnvelope
	if err := json.Unmarshal(body, &fired); err != nil {
		t.Fatalf("unmarshal fired: %v", err)
	}
	if fired.Reminder.State != "reminding" {
		t.Fatalf("expected reminding after fired event, got %s", fired.Reminder.State)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/reminder/event", user.Token, map[string]string{
		"event": "taken_action",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on taken_action, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/reminder/event", user.Token, map[string]string{
		"event": "shake_action",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown event, got %d", status)
	}
}

func TestOnboardingNavigation(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "saburo@example.com", "123456")

	status, body := requestJSON(t, engine, http.MethodGet, "/api/onboarding", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on onboarding state, got %d", status)
	}
	var state onboardingEnvelope
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("unmarshal onboarding state: %v", err)
	}
	if state.Onboarding.CurrentStep != "welcome" {
		t.Fatalf("expected welcome step, got %s", state.Onboarding.CurrentStep)
	}
	if state.Onboarding.Completed {
		t.Fatal("expected fresh user to be incomplete")
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/onboarding/permission", user.Token, map[string]interface{}{
		"kind": "camera", "granted": true,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on permission, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/onboarding/family-setup", user.Token, map[string]interface{}{
		"enabled": true, "method": "line",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on family-setup, got %d", status)
	}

	// With the LINE method the family-contact step is skipped.
	steps := []string{"permissions", "introduction", "family-setup", "notification-method", "line-contacts"}
	for _, expected := range steps {
		status, body = requestJSON(t, engine, http.MethodPost, "/api/onboarding/advance", user.Token, nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200 on advance, got %d", status)
		}
		if err := json.Unmarshal(body, &state); err != nil {
			t.Fatalf("unmarshal advance: %v", err)
		}
		if state.Onboarding.CurrentStep != expected {
			t.Fatalf("expected step %s, got %s", expected, state.Onboarding.CurrentStep)
		}
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/onboarding/retreat", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on retreat, got %d", status)
	}
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("unmarshal retreat: %v", err)
	}
	if state.Onboarding.CurrentStep != "notification-method" {
		t.Fatalf("expected retreat to notification-method, got %s", state.Onboarding.CurrentStep)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/onboarding/contacts", user.Token, map[string]string{
		"kind": "line", "name": "田中 次郎", "preferredMethod": "email", "email": "jiro@example.com",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on add line contact, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/onboarding/complete", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on complete, got %d", status)
	}
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("unmarshal complete: %v", err)
	}
	if !state.Onboarding.Completed || state.Onboarding.CurrentStep != "complete" {
		t.Fatalf("expected completed onboarding, got %+v", state.Onboarding)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/contacts", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on contacts, got %d", status)
	}
	var contacts contactsEnvelope
	if err := json.Unmarshal(body, &contacts); err != nil {
		t.Fatalf("unmarshal contacts: %v", err)
	}
	if len(contacts.Contacts) != 1 || contacts.Contacts[0].Name != "田中 次郎" {
		t.Fatalf("unexpected persisted contacts: %+v", contacts.Contacts)
	}
}

func TestAuthRequired(t *testing.T) {
	engine := setupTestEngine(t)

	for _, path := range []string{"/api/medications", "/api/reminder/state", "/api/onboarding", "/api/contacts"} {
		status, _ := requestJSON(t, engine, http.MethodGet, path, "", nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token, got %d", path, status)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	t.Cleanup(relay.Close)

	log := zap.NewNop()
	userRepo := repository.NewUserRepository(database)
	medRepo := repository.NewMedicationRepository(database)
	contactRepo := repository.NewContactRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	authService := service.NewAuthService(userRepo, "test-secret", 24*time.Hour)
	medicationService := service.NewMedicationService(medRepo, log)
	dispatcher := notify.NewDispatcher(notify.NewSMSSender(log), notify.NewEmailSender(relay.URL), log)
	voice := speech.NewQueue(speech.NewLogSynthesizer(log), time.Millisecond, log)
	timing := reminder.Timing{
		InactivityWindow: time.Hour,
		PostponeDelay:    time.Hour,
		SnoozeDelay:      time.Hour,
	}
	reminderService := service.NewReminderService(medicationService, medRepo, contactRepo, dispatcher, voice, nil, timing, log)
	onboardingService := service.NewOnboardingService(settingsRepo, contactRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	medicationHandler := handler.NewMedicationHandler(medicationService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService)

	return router.New(authService, authHandler, medicationHandler, reminderHandler, onboardingHandler, []string{"http://localhost:5173"})
}

func addMedication(t *testing.T, server http.Handler, token, name, scheduledTime string) {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/medications", token, map[string]interface{}{
		"medications": []map[string]interface{}{
			{"name": name, "times": []string{scheduledTime}},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("add medication %s failed with status %d: %s", name, status, string(body))
	}
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
