package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"food-dashboard/internal/auth"
	"food-dashboard/internal/backup"
	"food-dashboard/internal/database"
	"food-dashboard/internal/metrics"
	"food-dashboard/internal/models"
	"food-dashboard/internal/records"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

type memRecorder struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *memRecorder) Write(_ context.Context, entry models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = fixedNow
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memRecorder) Recent(_ context.Context, table string, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditLog, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if table == "" || m.entries[i].RecordTable == table {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type testEnv struct {
	store   *database.Store
	svc     *records.Service
	audit   *memRecorder
	backups *backup.Memory
	app     *fiber.App
}

func newEnv(t *testing.T, gate *auth.Gate) *testEnv {
	t.Helper()
	store, err := database.Open(t.TempDir())
	require.NoError(t, err)

	env := &testEnv{store: store, audit: &memRecorder{}, backups: backup.NewMemory()}
	env.svc = &records.Service{
		Store:   store,
		Audit:   env.audit,
		Metrics: metrics.New(),
		Backup:  env.backups,
		Now:     func() time.Time { return fixedNow },
	}
	if gate == nil {
		gate = auth.NewGate("", "")
	}
	env.app = New(Deps{Records: env.svc, Metrics: env.svc.Metrics, Gate: gate})
	return env
}

// browser keeps cookies between requests like a real client.
type browser struct {
	t   *testing.T
	app *fiber.App
	jar map[string]*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, app: e.app, jar: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	for _, c := range b.jar {
		req.AddCookie(c)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) || c.Value == "" {
			delete(b.jar, c.Name)
			continue
		}
		b.jar[c.Name] = c
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(target string) (*http.Response, string) {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return b.do(req)
}

// navigate switches page and returns the rendered view.
func (b *browser) navigate(page string) string {
	b.t.Helper()
	resp, _ := b.post("/nav/"+page, nil)
	require.Equal(b.t, fiber.StatusSeeOther, resp.StatusCode)
	resp, body := b.get("/")
	require.Equal(b.t, fiber.StatusOK, resp.StatusCode)
	return body
}

func (e *testEnv) seedInventory(t *testing.T, items ...string) {
	t.Helper()
	for _, item := range items {
		_, err := e.store.AppendInventory(models.InventoryRecord{
			Item: item, Quantity: 10, DateReceived: fixedNow, ExpiryDate: fixedNow.AddDate(0, 5, 0),
		})
		require.NoError(t, err)
	}
}

func (e *testEnv) seedWaste(t *testing.T, rows ...models.WasteRecord) {
	t.Helper()
	for _, r := range rows {
		_, err := e.store.AppendWaste(r)
		require.NoError(t, err)
	}
}

func wasteRow(item string, qty int) models.WasteRecord {
	d, _ := models.ParseDate("2024-02-01")
	return models.WasteRecord{Item: item, QuantityWasted: qty, Reason: "expired", WasteDate: d}
}

func TestHome_DefaultPage(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)

	resp, body := b.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	assert.Contains(t, body, "Welcome to NGO Dashboard")
	assert.Contains(t, body, `id="inventory-count">0<`)
	assert.Contains(t, body, `id="waste-count">0<`)
	assert.NotContains(t, body, "Most Wasted")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHome_OneInventoryRowNoWaste(t *testing.T) {
	env := newEnv(t, nil)
	require.NoError(t, os.WriteFile(env.store.Path(database.Inventory),
		[]byte("Item,Quantity,Date Received,Expiry Date\nRice,10,2024-01-01,2024-06-01\n"), 0o644))

	_, body := env.browser(t).get("/")
	assert.Contains(t, body, `id="inventory-count">1<`)
	assert.Contains(t, body, `id="waste-count">0<`)
	assert.NotContains(t, body, "Most Wasted")
}

func TestHome_MostWastedTieGoesToSmallestItem(t *testing.T) {
	env := newEnv(t, nil)
	env.seedWaste(t, wasteRow("Rice", 5), wasteRow("Beans", 5))

	_, body := env.browser(t).get("/")
	assert.Contains(t, body, "Most Wasted: Beans (5 units)")
}

func TestNavigation_PageSticksAcrossRequests(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)

	body := b.navigate("inventory")
	assert.Contains(t, body, "Current Inventory")

	_, body = b.get("/")
	assert.Contains(t, body, "Current Inventory")

	// another session still starts at home
	_, body = env.browser(t).get("/")
	assert.Contains(t, body, "Welcome to NGO Dashboard")
}

func TestNavigation_UnknownPage(t *testing.T) {
	env := newEnv(t, nil)
	resp, _ := env.browser(t).post("/nav/settings", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAddInventory(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)

	body := b.navigate("add")
	assert.Contains(t, body, `value="2024-01-01"`)

	resp, _ := b.post("/inventory", url.Values{
		"item": {"Rice"}, "quantity": {"10"}, "expiry_date": {"2024-06-01"},
	})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	_, body = b.get("/")
	assert.Contains(t, body, "Item added to inventory.")
	assert.Contains(t, body, "Add New Inventory")

	raw, err := env.store.Raw(database.Inventory)
	require.NoError(t, err)
	assert.Equal(t, "Item,Quantity,Date Received,Expiry Date\nRice,10,2024-01-01,2024-06-01\n", string(raw))

	// flash is shown once
	_, body = b.get("/")
	assert.NotContains(t, body, "Item added to inventory.")

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, models.AuditActionCreate, env.audit.entries[0].Action)
	assert.NotEmpty(t, env.audit.entries[0].RequestID)
}

func TestAddInventory_RejectsBadQuantity(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)

	for _, qty := range []string{"0", "-3", "ten"} {
		resp, _ := b.post("/inventory", url.Values{"item": {"Rice"}, "quantity": {qty}, "expiry_date": {"2024-06-01"}})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, qty)
	}
	resp, _ := b.post("/inventory", url.Values{"item": {"Rice"}, "quantity": {"1"}, "expiry_date": {"06/01/2024"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	snap, err := env.store.Load(database.Inventory)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestLogWaste_EmptyInventory(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)

	body := b.navigate("waste")
	assert.Contains(t, body, "Inventory empty.")
	assert.NotContains(t, body, `id="log-waste"`)
	assert.Contains(t, body, "No waste logs to delete.")

	resp, _ := b.post("/waste", url.Values{"item": {"Rice"}, "quantity": {"1"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body = b.get("/")
	assert.Contains(t, body, `class="flash info">Inventory empty.`)

	snap, err := env.store.Load(database.WasteLog)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestLogWaste(t *testing.T) {
	env := newEnv(t, nil)
	env.seedInventory(t, "Rice", "Beans", "Rice")
	b := env.browser(t)

	body := b.navigate("waste")
	assert.Equal(t, 1, strings.Count(body, `<option value="Rice">`))
	assert.Contains(t, body, `<option value="Beans">`)

	resp, _ := b.post("/waste", url.Values{"item": {"Beans"}, "quantity": {"3"}, "reason": {"mould, spoiled"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	_, body = b.get("/")
	assert.Contains(t, body, "Waste logged.")
	assert.Contains(t, body, "0 - Beans (2024-01-01)")

	recs, err := env.store.LoadWasteLog()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "mould, spoiled", recs[0].Reason)

	resp, _ = b.post("/waste", url.Values{"item": {"Milk"}, "quantity": {"1"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeleteWaste(t *testing.T) {
	env := newEnv(t, nil)
	env.seedWaste(t, wasteRow("Rice", 1), wasteRow("Beans", 2), wasteRow("Milk", 3))
	b := env.browser(t)
	b.navigate("waste")

	_, body := b.get("/?row=1")
	assert.Contains(t, body, `<option value="1" selected>1 - Beans (2024-02-01)</option>`)

	snap, err := env.store.Load(database.WasteLog)
	require.NoError(t, err)

	resp, _ := b.post("/waste/delete", url.Values{"position": {"1"}, "revision": {snap.Revision}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body = b.get("/")
	assert.Contains(t, body, "Deleted successfully.")

	after, err := env.store.Load(database.WasteLog)
	require.NoError(t, err)
	assert.Equal(t, [][]string{snap.Rows[0], snap.Rows[2]}, after.Rows)

	// the old revision no longer matches
	resp, _ = b.post("/waste/delete", url.Values{"position": {"0"}, "revision": {snap.Revision}})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = b.post("/waste/delete", url.Values{"position": {"7"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteWaste_EmptyTable(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)
	b.navigate("waste")

	resp, _ := b.post("/waste/delete", url.Values{"position": {"0"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body := b.get("/")
	assert.Contains(t, body, `class="flash info">No waste logs to delete.`)
}

func TestAnalytics(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)

	body := b.navigate("analytics")
	assert.Contains(t, body, "No records.")
	assert.NotContains(t, body, "<svg")

	env.seedWaste(t, wasteRow("Rice", 5), wasteRow("Beans", 2), wasteRow("Rice", 1))
	_, body = b.get("/")
	assert.Contains(t, body, `<div id="waste-chart"><svg`)
	assert.Contains(t, body, "Waste Per Item")
	assert.Contains(t, body, "<td>Rice</td><td>6</td>")
	assert.Less(t, strings.Index(body, "<td>Beans</td><td>2</td>"), strings.Index(body, "<td>Rice</td><td>6</td>"))
	assert.Contains(t, body, "<details>")
}

func TestWasteTotalsAPI(t *testing.T) {
	env := newEnv(t, nil)
	env.seedWaste(t, wasteRow("Rice", 5), wasteRow("Beans", 5))

	resp, body := env.browser(t).get("/api/waste/totals")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got struct {
		Records    int `json:"records"`
		MostWasted struct {
			Item     string `json:"item"`
			Quantity int    `json:"quantity"`
		} `json:"most_wasted"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 2, got.Records)
	assert.Equal(t, "Beans", got.MostWasted.Item)
	assert.Equal(t, 5, got.MostWasted.Quantity)
}

func TestAdmin_ViewPanel(t *testing.T) {
	env := newEnv(t, nil)
	env.seedInventory(t, "Rice")
	env.seedWaste(t, wasteRow("Rice", 4))
	b := env.browser(t)
	b.navigate("admin")

	_, body := b.get("/?panel=view")
	assert.Contains(t, body, "<h3>Inventory</h3>")
	assert.Contains(t, body, "<h3>Waste Log</h3>")
	assert.Contains(t, body, "<td>expired</td>")

	resp, _ := b.get("/?panel=nope")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_DeleteEntry(t *testing.T) {
	env := newEnv(t, nil)
	env.seedInventory(t, "Rice", "Beans")
	b := env.browser(t)
	b.navigate("admin")

	_, body := b.get("/?panel=delete&table=waste_log")
	assert.Contains(t, body, "Waste log is empty.")

	resp, _ := b.post("/admin/delete", url.Values{"table": {"waste_log"}, "position": {"0"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?panel=delete&table=waste_log", resp.Header.Get(fiber.HeaderLocation))
	_, body = b.get(resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, body, `class="flash info">Waste log is empty.`)

	_, body = b.get("/?panel=delete&table=inventory&row=1")
	assert.Contains(t, body, `<option value="1" selected>1</option>`)
	assert.Contains(t, body, "<td>Beans</td>")

	resp, _ = b.post("/admin/delete", url.Values{"table": {"inventory"}, "position": {"1"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body = b.get(resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, body, "✅ Deleted.")

	recs, err := env.store.LoadInventory()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Rice", recs[0].Item)

	resp, _ = b.post("/admin/delete", url.Values{"table": {"users"}, "position": {"0"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_Reset(t *testing.T) {
	env := newEnv(t, nil)
	env.seedInventory(t, "Rice")
	env.seedWaste(t, wasteRow("Rice", 4))
	invBefore, err := env.store.Raw(database.Inventory)
	require.NoError(t, err)
	b := env.browser(t)
	b.navigate("admin")

	_, body := b.get("/?panel=reset")
	assert.Contains(t, body, "Deletes ALL data.")

	resp, _ := b.post("/admin/reset", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	snap, err := env.store.Load(database.Inventory)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())

	resp, _ = b.post("/admin/reset", url.Values{"confirm": {"yes"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body = b.get(resp.Header.Get(fiber.HeaderLocation))
	assert.Contains(t, body, "All data cleared.")

	for _, tbl := range database.Tables() {
		snap, err := env.store.Load(tbl)
		require.NoError(t, err)
		assert.True(t, snap.Empty())
	}

	var invKey string
	for _, k := range env.backups.Keys() {
		if strings.HasSuffix(k, "/inventory.csv") {
			invKey = k
		}
	}
	require.NotEmpty(t, invKey)
	saved, ok := env.backups.Get(invKey)
	require.True(t, ok)
	assert.Equal(t, invBefore, saved)

	// a second confirmation in the same instant still clears the tables
	env.seedInventory(t, "Beans")
	resp, _ = b.post("/admin/reset", url.Values{"confirm": {"yes"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	snap, err = env.store.Load(database.Inventory)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Len(t, env.backups.Keys(), 4)
}

func TestAdmin_DownloadCSV(t *testing.T) {
	env := newEnv(t, nil)
	content := "Item,Quantity Wasted,Reason,Waste Date\nRice,5,\"rats, again\",2024-02-01\n"
	require.NoError(t, os.WriteFile(env.store.Path(database.WasteLog), []byte(content), 0o644))

	resp, body := env.browser(t).get("/admin/download/waste_log.csv")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, content, body)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="waste_log.csv"`)

	resp, _ = env.browser(t).get("/admin/download/passwords.csv")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdmin_DownloadWorkbook(t *testing.T) {
	env := newEnv(t, nil)
	env.seedInventory(t, "Rice")
	env.seedWaste(t, wasteRow("Rice", 4))

	resp, body := env.browser(t).get("/admin/download/food_dashboard.xlsx")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	f, err := excelize.OpenReader(strings.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Inventory", "Waste Log"}, f.GetSheetList())
	rows, err := f.GetRows("Waste Log")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Item", "Quantity Wasted", "Reason", "Waste Date"},
		{"Rice", "4", "expired", "2024-02-01"},
	}, rows)
}

func TestAdmin_HistoryPanel(t *testing.T) {
	env := newEnv(t, nil)
	b := env.browser(t)
	b.navigate("admin")

	_, body := b.get("/?panel=history")
	assert.Contains(t, body, "No audit entries recorded.")

	resp, _ := b.post("/inventory", url.Values{"item": {"Rice"}, "quantity": {"2"}, "expiry_date": {"2024-03-01"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	_, body = b.get("/?panel=history")
	assert.Contains(t, body, `id="history"`)
	assert.Contains(t, body, "inventory added: Rice x2")

	resp, body = b.get("/api/audit-logs?limit=5")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"action":"create"`)
}

func TestMalformedFile(t *testing.T) {
	env := newEnv(t, nil)
	require.NoError(t, os.WriteFile(env.store.Path(database.WasteLog),
		[]byte("Item,Quantity Wasted,Reason,Waste Date\nRice,lots,expired,2024-02-01\n"), 0o644))
	b := env.browser(t)

	resp, body := b.get("/")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Malformed data file")
	assert.Contains(t, body, "waste_log.csv line 2")

	resp, body = b.get("/api/waste/totals")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, `"error"`)

	resp, _ = b.get("/healthz")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	// the file is reported, never rewritten
	raw, err := env.store.Raw(database.WasteLog)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "lots")
}

func TestHealthAndMetrics(t *testing.T) {
	env := newEnv(t, nil)
	env.seedInventory(t, "Rice")
	b := env.browser(t)

	resp, body := b.get("/healthz")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","rows":{"inventory":1,"waste_log":0}}`, body)

	b.post("/inventory", url.Values{"item": {"Beans"}, "quantity": {"1"}})
	_, body = b.get("/metrics")
	assert.Contains(t, body, `food_dashboard_records_added_total{table="inventory"} 1`)
	assert.Contains(t, body, "food_dashboard_http_requests_total")
}

func TestAdminGate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	env := newEnv(t, auth.NewGate(string(hash), "0123456789abcdef0123456789abcdef"))
	env.seedInventory(t, "Rice")
	b := env.browser(t)

	body := b.navigate("admin")
	assert.Contains(t, body, `id="admin-login"`)
	_, body = b.get("/?panel=view")
	assert.NotContains(t, body, "<h3>Inventory</h3>")

	resp, _ := b.post("/admin/reset", url.Values{"confirm": {"yes"}})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = b.get("/admin/download/inventory.csv")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = b.post("/admin/login", url.Values{"password": {"guess"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body = b.get("/")
	assert.Contains(t, body, "Incorrect password.")

	resp, _ = b.post("/admin/login", url.Values{"password": {"s3cret"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Contains(t, b.jar, auth.CookieName)

	_, body = b.get("/?panel=view")
	assert.Contains(t, body, "<h3>Inventory</h3>")
	assert.Contains(t, body, "Sign Out")

	resp, _ = b.get("/admin/download/inventory.csv")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b.post("/admin/logout", nil)
	assert.NotContains(t, b.jar, auth.CookieName)
	resp, _ = b.post("/admin/reset", url.Values{"confirm": {"yes"}})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
