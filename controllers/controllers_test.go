package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/notify"
	"github.com/yeremiapane/hpp-app/router"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t   *testing.T
	db  *gorm.DB
	r   *gin.Engine
	hub *notify.Hub
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger("error")
	utils.InitJWT("test-secret", time.Hour)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := notify.NewHub()
	r := router.SetupRouter(ctx, db, hub, router.Options{
		CORSOrigins:   []string{"http://localhost:5173"},
		InvitationTTL: 24 * time.Hour,
	})
	return &testAPI{t: t, db: db, r: r, hub: hub}
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// data decodes the envelope data of a successful response into dst.
func (a *testAPI) data(w *httptest.ResponseRecorder, env envelope, code int, dst interface{}) {
	a.t.Helper()
	require.Equal(a.t, code, w.Code, w.Body.String())
	if dst != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, dst))
	}
}

type authData struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	User  struct {
		ID uint `json:"id"`
	} `json:"user"`
	Organization struct {
		ID uint `json:"id"`
	} `json:"organization"`
}

func (a *testAPI) register(email, orgName string) authData {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":              "Pemilik " + orgName,
		"email":             email,
		"password":          "rahasia123",
		"organization_name": orgName,
	})
	var res authData
	a.data(w, env, http.StatusCreated, &res)
	return res
}

type idData struct {
	ID uint `json:"id"`
}

// seedHPP creates flour at Rp 35.000/kg, a 10-serving recipe using 200 gram
// of it and a menu selling that recipe at 15000.
func (a *testAPI) seedHPP(token string) (ingredientID, recipeID, menuID uint) {
	a.t.Helper()
	var ing, recipe, menu idData

	w, env := a.do(http.MethodPost, "/ingredients", token, map[string]interface{}{
		"name":           "Tepung Terigu",
		"category":       "Bahan Kering",
		"purchase_unit":  "kg",
		"purchase_price": 35000,
		"usage_unit":     "gram",
	})
	a.data(w, env, http.StatusCreated, &ing)

	w, env = a.do(http.MethodPost, "/recipes", token, map[string]interface{}{
		"name":        "Roti Tawar",
		"servings":    10,
		"ingredients": []map[string]interface{}{{"ingredient_id": ing.ID, "quantity": 200}},
	})
	a.data(w, env, http.StatusCreated, &recipe)

	w, env = a.do(http.MethodPost, "/menus", token, map[string]interface{}{
		"name":          "Roti Bakar",
		"category":      "Snack",
		"selling_price": 15000,
		"recipes":       []map[string]interface{}{{"recipe_id": recipe.ID, "quantity": 1}},
	})
	a.data(w, env, http.StatusCreated, &menu)
	return ing.ID, recipe.ID, menu.ID
}

func TestRegisterLoginAndMe(t *testing.T) {
	api := setupAPI(t)

	owner := api.register("Budi@Example.com", "Warung Budi")
	assert.NotEmpty(t, owner.Token)
	assert.Equal(t, models.RoleOwner, owner.Role)

	w, env := api.do(http.MethodGet, "/auth/me", owner.Token, nil)
	var me struct {
		Role string `json:"role"`
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	api.data(w, env, http.StatusOK, &me)
	assert.Equal(t, "budi@example.com", me.User.Email)
	assert.Equal(t, models.RoleOwner, me.Role)

	w, env = api.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "budi@example.com", "password": "salah-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Status)

	w, _ = api.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Budi", "email": "budi@example.com", "password": "rahasia123", "organization_name": "Lain",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = api.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "budi@example.com", "password": "rahasia123",
	})
	var login authData
	api.data(w, env, http.StatusOK, &login)
	assert.Equal(t, owner.Organization.ID, login.Organization.ID)

	w, _ = api.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("sari@example.com", "Kedai Sari")

	w, _ := api.do(http.MethodPost, "/auth/logout", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/auth/me", owner.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHPPFlowOverHTTP(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("dapur@example.com", "Dapur Bunda")
	ingredientID, recipeID, menuID := api.seedHPP(owner.Token)

	w, env := api.do(http.MethodGet, fmt.Sprintf("/recipes/%d", recipeID), owner.Token, nil)
	var recipe struct {
		TotalCost      float64 `json:"total_cost"`
		CostPerServing float64 `json:"cost_per_serving"`
	}
	api.data(w, env, http.StatusOK, &recipe)
	assert.InDelta(t, 7000, recipe.TotalCost, 1e-9)
	assert.InDelta(t, 700, recipe.CostPerServing, 1e-9)

	w, env = api.do(http.MethodGet, fmt.Sprintf("/menus/%d", menuID), owner.Token, nil)
	var menu struct {
		TotalCost       float64 `json:"total_cost"`
		Profit          float64 `json:"profit"`
		ProfitMargin    float64 `json:"profit_margin"`
		SuggestedPrices []struct {
			Margin float64 `json:"margin"`
			Price  float64 `json:"price"`
		} `json:"suggested_prices"`
	}
	api.data(w, env, http.StatusOK, &menu)
	assert.InDelta(t, 700, menu.TotalCost, 1e-9)
	assert.InDelta(t, 14300, menu.Profit, 1e-9)
	assert.InDelta(t, 95.33, menu.ProfitMargin, 0.01)
	require.NotEmpty(t, menu.SuggestedPrices)

	// harga naik 2x, HPP menu ikut naik
	w, _ = api.do(http.MethodPatch, fmt.Sprintf("/ingredients/%d", ingredientID), owner.Token, map[string]interface{}{
		"purchase_price": 70000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w, env = api.do(http.MethodGet, fmt.Sprintf("/menus/%d", menuID), owner.Token, nil)
	api.data(w, env, http.StatusOK, &menu)
	assert.InDelta(t, 1400, menu.TotalCost, 1e-9)

	w, env = api.do(http.MethodGet, fmt.Sprintf("/ingredients/%d/price-history", ingredientID), owner.Token, nil)
	var history []idData
	api.data(w, env, http.StatusOK, &history)
	assert.Len(t, history, 2)

	w, env = api.do(http.MethodDelete, fmt.Sprintf("/ingredients/%d", ingredientID), owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "in use")

	w, env = api.do(http.MethodDelete, fmt.Sprintf("/recipes/%d", recipeID), owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/menus/%d", menuID), owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/recipes/%d", recipeID), owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodGet, fmt.Sprintf("/recipes/%d", recipeID), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeCycleRejected(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("cycle@example.com", "Toko Kue")
	_, recipeID, _ := api.seedHPP(owner.Token)

	var top idData
	w, env := api.do(http.MethodPost, "/recipes", owner.Token, map[string]interface{}{
		"name":       "Roti Isi",
		"servings":   1,
		"components": []map[string]interface{}{{"sub_recipe_id": recipeID, "quantity": 2}},
	})
	api.data(w, env, http.StatusCreated, &top)

	w, env = api.do(http.MethodPatch, fmt.Sprintf("/recipes/%d", recipeID), owner.Token, map[string]interface{}{
		"components": []map[string]interface{}{{"sub_recipe_id": top.ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Status)
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	api := setupAPI(t)
	a := api.register("a@example.com", "Resto A")
	b := api.register("b@example.com", "Resto B")
	ingredientID, recipeID, menuID := api.seedHPP(a.Token)

	for _, path := range []string{
		fmt.Sprintf("/ingredients/%d", ingredientID),
		fmt.Sprintf("/recipes/%d", recipeID),
		fmt.Sprintf("/menus/%d", menuID),
	} {
		w, _ := api.do(http.MethodGet, path, b.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w, env := api.do(http.MethodGet, "/recipes", b.Token, nil)
	var list []idData
	api.data(w, env, http.StatusOK, &list)
	assert.Empty(t, list)
}

func TestInvitationAndRoles(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("owner@example.com", "Bakery Owner")

	w, env := api.do(http.MethodPost, "/organization/invitations", owner.Token, map[string]string{
		"email": "staff@example.com",
	})
	var inv struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	api.data(w, env, http.StatusCreated, &inv)
	assert.Equal(t, models.RoleMember, inv.Role)
	require.NotEmpty(t, inv.Token)

	w, env = api.do(http.MethodPost, "/invitations/"+inv.Token+"/accept", "", map[string]string{
		"name": "Staff", "password": "staff12345",
	})
	var member authData
	api.data(w, env, http.StatusOK, &member)
	assert.Equal(t, owner.Organization.ID, member.Organization.ID)
	assert.Equal(t, models.RoleMember, member.Role)

	// token sudah dipakai
	w, _ = api.do(http.MethodPost, "/invitations/"+inv.Token+"/accept", "", map[string]string{
		"name": "Staff", "password": "staff12345",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodGet, "/ingredients", member.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodPatch, "/organization", member.Token, map[string]string{"name": "Diambil Alih"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = api.do(http.MethodPost, "/units", member.Token, map[string]interface{}{
		"name": "sak", "group": "mass", "base_value": 25000,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = api.do(http.MethodGet, "/organization/members", owner.Token, nil)
	var members []struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	api.data(w, env, http.StatusOK, &members)
	assert.Len(t, members, 2)

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/organization/members/%d", owner.User.ID), owner.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/organization/members/%d", member.User.ID), owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// token lama tidak berlaku lagi setelah keanggotaan dicabut
	w, _ = api.do(http.MethodGet, "/ingredients", member.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBundleEndpoints(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("bundle@example.com", "Paket Hemat")
	_, _, menuID := api.seedHPP(owner.Token)

	w, env := api.do(http.MethodPost, "/bundles/calculate", owner.Token, map[string]interface{}{
		"items":          []map[string]interface{}{{"menu_id": menuID, "quantity": 2}},
		"promotion_type": "PERCENTAGE",
		"discount_value": 10,
	})
	var calc struct {
		TotalHPP      float64 `json:"total_hpp"`
		OriginalPrice float64 `json:"original_price"`
		Discount      float64 `json:"discount"`
		FinalPrice    float64 `json:"final_price"`
	}
	api.data(w, env, http.StatusOK, &calc)
	assert.InDelta(t, 1400, calc.TotalHPP, 1e-9)
	assert.InDelta(t, 30000, calc.OriginalPrice, 1e-9)
	assert.InDelta(t, 3000, calc.Discount, 1e-9)
	assert.InDelta(t, 27000, calc.FinalPrice, 1e-9)

	w, env = api.do(http.MethodPost, "/bundles", owner.Token, map[string]interface{}{
		"name":           "Paket Berdua",
		"promotion_type": "FIXED_PRICE",
		"bundle_price":   25000,
		"is_active":      true,
		"items":          []map[string]interface{}{{"menu_id": menuID, "quantity": 2}},
	})
	var bundle struct {
		ID         uint    `json:"id"`
		FinalPrice float64 `json:"final_price"`
		Discount   float64 `json:"discount"`
	}
	api.data(w, env, http.StatusCreated, &bundle)
	assert.InDelta(t, 25000, bundle.FinalPrice, 1e-9)
	assert.InDelta(t, 5000, bundle.Discount, 1e-9)

	w, env = api.do(http.MethodGet, "/bundles?active=true", owner.Token, nil)
	var bundles []idData
	api.data(w, env, http.StatusOK, &bundles)
	require.Len(t, bundles, 1)
	assert.Equal(t, bundle.ID, bundles[0].ID)

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/menus/%d", menuID), owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnitEndpoints(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("unit@example.com", "Toko Satuan")

	w, env := api.do(http.MethodGet, "/units/conversion?from=kg&to=gram", owner.Token, nil)
	var conv struct {
		Factor     float64 `json:"factor"`
		Compatible bool    `json:"compatible"`
	}
	api.data(w, env, http.StatusOK, &conv)
	assert.Equal(t, 1000.0, conv.Factor)
	assert.True(t, conv.Compatible)

	// package_size hanya berlaku untuk satuan kemasan
	w, env = api.do(http.MethodGet, "/units/legacy/conversion?from=liter&to=ml&package_size=2", owner.Token, nil)
	api.data(w, env, http.StatusOK, &conv)
	assert.Equal(t, 1000.0, conv.Factor)

	w, _ = api.do(http.MethodGet, "/units/conversion?from=kg", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.do(http.MethodGet, "/units?group=mass", owner.Token, nil)
	var units []struct {
		Name string `json:"name"`
	}
	api.data(w, env, http.StatusOK, &units)
	assert.NotEmpty(t, units)

	w, env = api.do(http.MethodGet, "/units/check", owner.Token, nil)
	var check struct {
		Valid bool `json:"valid"`
	}
	api.data(w, env, http.StatusOK, &check)
	assert.True(t, check.Valid)

	w, _ = api.do(http.MethodPost, "/units", owner.Token, map[string]interface{}{
		"name": "sak", "group": "mass", "base_value": 25000, "is_purchase_unit": true,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("notif@example.com", "Warung Notif")
	ingredientID, _, _ := api.seedHPP(owner.Token)

	w, _ := api.do(http.MethodPatch, fmt.Sprintf("/ingredients/%d", ingredientID), owner.Token, map[string]interface{}{
		"purchase_price": 40000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var count struct {
		Count int64 `json:"count"`
	}
	w, env := api.do(http.MethodGet, "/notifications/unread-count", owner.Token, nil)
	api.data(w, env, http.StatusOK, &count)
	assert.Equal(t, int64(1), count.Count)

	w, env = api.do(http.MethodGet, "/notifications?unread=true", owner.Token, nil)
	var notifs []struct {
		ID    uint   `json:"id"`
		Event string `json:"event"`
	}
	api.data(w, env, http.StatusOK, &notifs)
	require.Len(t, notifs, 1)
	assert.Equal(t, notify.EventIngredientPriceChanged, notifs[0].Event)

	w, _ = api.do(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", notifs[0].ID), owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = api.do(http.MethodGet, "/notifications/unread-count", owner.Token, nil)
	api.data(w, env, http.StatusOK, &count)
	assert.Equal(t, int64(0), count.Count)

	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/notifications/%d", notifs[0].ID), owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodDelete, fmt.Sprintf("/notifications/%d", notifs[0].ID), owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardAndReport(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("report@example.com", "Laporan HPP")
	api.seedHPP(owner.Token)

	w, env := api.do(http.MethodGet, "/dashboard/stats", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Status)

	w, _ = api.do(http.MethodGet, "/reports/hpp.pdf", owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestBadRequests(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("bad@example.com", "Input Salah")

	w, env := api.do(http.MethodGet, "/recipes/abc", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", env.Message)

	req := httptest.NewRequest(http.MethodPost, "/menus", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+owner.Token)
	rec := httptest.NewRecorder()
	api.r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w, _ = api.do(http.MethodPost, "/recipes", owner.Token, map[string]interface{}{
		"name": "Tanpa Porsi", "servings": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebSocketReceivesPriceChange(t *testing.T) {
	api := setupAPI(t)
	owner := api.register("ws@example.com", "Realtime")
	ingredientID, _, _ := api.seedHPP(owner.Token)

	srv := httptest.NewServer(api.r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + owner.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// handler mendaftarkan koneksi setelah handshake selesai
	require.Eventually(t, func() bool {
		return api.hub.Clients(owner.Organization.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w, _ := api.do(http.MethodPatch, fmt.Sprintf("/ingredients/%d", ingredientID), owner.Token, map[string]interface{}{
		"purchase_price": 42000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Event string `json:"event"`
		Data  struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, notify.EventIngredientPriceChanged, msg.Event)
	assert.Contains(t, msg.Data.Message, "Tepung Terigu")
}

func TestWebSocketRequiresToken(t *testing.T) {
	api := setupAPI(t)
	w, _ := api.do(http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
