package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	testAppBinary         = "./swapp_test_app"
	testAppPort           = "8089"
	testServiceApiPortApi = "8091"
	testServiceApiPortBg  = "8092"
	testDbName            = "swapp_integration"
	testAppURL            = "http://localhost:" + testAppPort
	testServiceApiURL     = "http://localhost:" + testServiceApiPortApi
	startupTimeout        = 15 * time.Second
	pingEndpoint          = testAppURL + "/v1/ping"
)

// TestMain builds the binary, starts an API process and a background worker
// against a scratch database, and tears everything down afterwards.
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	if os.Getenv("MONGO_URI") == "" {
		log.Println("MONGO_URI not set, skipping integration tests")
		return
	}

	defer func() {
		_ = os.Remove(testAppBinary)
	}()

	log.Println("Integration Test Setup: Building application...")
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, out)
		os.Exit(1)
	}

	defer dropTestDatabase()

	commonEnv := append(os.Environ(),
		"MONGO_DB_NAME="+testDbName,
		"JWT_SECRET=integration-test-secret",
		"GIN_MODE=release",
		"MOCK_SERVICES=true",
		"RATE_LIMIT_BUCKET_SIZE=100",
		"RATE_LIMIT_REFILL_RATE=100",
		"RECOMMENDER_ENGINE_URL=http://127.0.0.1:1",
		"RECOMMENDER_EVENT_URL=http://127.0.0.1:1",
		"RECOMMENDER_TIMEOUT_MS=200",
	)

	apiCmd := exec.Command(testAppBinary, "-m", "api")
	apiCmd.Env = append(commonEnv, "API_PORT="+testAppPort, "SERVICE_API_PORT="+testServiceApiPortApi)
	apiCmd.Stderr = os.Stderr
	apiCmd.Stdout = os.Stdout
	if err := apiCmd.Start(); err != nil {
		log.Printf("Failed to start API process: %v", err)
		os.Exit(1)
	}

	bgCmd := exec.Command(testAppBinary, "-m", "bg")
	bgCmd.Env = append(commonEnv, "SERVICE_API_PORT="+testServiceApiPortBg)
	bgCmd.Stderr = os.Stderr
	bgCmd.Stdout = os.Stdout
	if err := bgCmd.Start(); err != nil {
		_ = apiCmd.Process.Kill()
		log.Printf("Failed to start background worker: %v", err)
		os.Exit(1)
	}

	defer func() {
		for _, cmd := range []*exec.Cmd{bgCmd, apiCmd} {
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				_ = cmd.Process.Kill()
				continue
			}
			_, _ = cmd.Process.Wait()
		}
		log.Println("Integration Test Teardown: application processes stopped.")
	}()

	if !waitForPing() {
		log.Printf("Application failed to start within %v", startupTimeout)
		return
	}
	// The worker has no health endpoint; give it a moment to subscribe.
	time.Sleep(2 * time.Second)

	code := m.Run()
	log.Printf("Integration Test Teardown: tests finished with exit code %d.", code)
}

func waitForPing() bool {
	start := time.Now()
	for time.Since(start) < startupTimeout {
		resp, err := http.Get(pingEndpoint)
		if err == nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK && string(body) == "pong" {
				return true
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func dropTestDatabase() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(os.Getenv("MONGO_URI")))
	if err != nil {
		log.Printf("Integration Test Teardown: connecting to drop database: %v", err)
		return
	}
	defer client.Disconnect(ctx)
	if err := client.Database(testDbName).Drop(ctx); err != nil {
		log.Printf("Integration Test Teardown: dropping database: %v", err)
	}
}

// --- helpers ---

func call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, testAppURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func serviceCall(t *testing.T, method string, args ...string) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"method": method, "arguments": args})
	require.NoError(t, err)
	resp, err := http.Post(testServiceApiURL+"/api", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

type testUser struct {
	ID    string
	Token string
}

func createUser(t *testing.T, name string) testUser {
	t.Helper()
	status, body := serviceCall(t, "createUser", name, "+63 900 000 0000")
	require.Equal(t, http.StatusOK, status, body)
	result := body["result"].(map[string]any)
	user := result["user"].(map[string]any)
	return testUser{ID: user["id"].(string), Token: result["token"].(string)}
}

func idOf(t *testing.T, body map[string]any) string {
	t.Helper()
	id, ok := body["id"].(string)
	require.True(t, ok, "response has no id: %v", body)
	return id
}

// --- tests ---

func TestIntegration_Ping(t *testing.T) {
	resp, err := http.Get(pingEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestIntegration_AuthRequired(t *testing.T) {
	status, _ := call(t, http.MethodGet, "/v1/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, http.MethodGet, "/v1/items", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIntegration_ServiceMetrics(t *testing.T) {
	resp, err := http.Get(testServiceApiURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

// TestIntegration_SwapFlow walks two users from listing items to an accepted swap.
func TestIntegration_SwapFlow(t *testing.T) {
	alice := createUser(t, "Alice")
	bob := createUser(t, "Bob")

	for _, u := range []testUser{alice, bob} {
		status, body := call(t, http.MethodPost, "/v1/profile/location", u.Token, map[string]any{
			"latitude": 14.5995, "longitude": 120.9842, "label": "Manila",
		})
		require.Equal(t, http.StatusOK, status, body)
	}
	status, body := call(t, http.MethodPost, "/v1/profile/device", bob.Token, map[string]any{"token": "bob-device-" + bob.ID})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, http.MethodPost, "/v1/categories", alice.Token, map[string]any{"name": fmt.Sprintf("Electronics %d", time.Now().UnixNano())})
	require.Equal(t, http.StatusCreated, status, body)
	categoryID := idOf(t, body)
	status, body = call(t, http.MethodPost, "/v1/subcategories", alice.Token, map[string]any{"category_id": categoryID, "name": "Gadgets"})
	require.Equal(t, http.StatusCreated, status, body)
	subcategoryID := idOf(t, body)

	status, body = call(t, http.MethodPost, "/v1/items", alice.Token, map[string]any{
		"name": "Phone", "price_min": 5000, "price_max": 6500, "subcategory_id": subcategoryID,
	})
	require.Equal(t, http.StatusCreated, status, body)
	phoneID := idOf(t, body)

	status, body = call(t, http.MethodPost, "/v1/items", bob.Token, map[string]any{
		"name": "Laptop", "price_min": 10000, "price_max": 15000, "subcategory_id": subcategoryID,
	})
	require.Equal(t, http.StatusCreated, status, body)
	laptopID := idOf(t, body)

	// Propose, then the reverse proposal resolves to the same transaction.
	status, body = call(t, http.MethodPost, "/v1/transactions", alice.Token, map[string]any{
		"user_item_id": phoneID, "other_item_id": laptopID,
	})
	require.Equal(t, http.StatusCreated, status, body)
	txID := idOf(t, body)

	status, body = call(t, http.MethodPost, "/v1/transactions", bob.Token, map[string]any{
		"user_item_id": laptopID, "other_item_id": phoneID,
	})
	require.Equal(t, http.StatusConflict, status, body)
	assert.Equal(t, "transaction_exists", body["code"])
	assert.Equal(t, txID, body["details"].(map[string]any)["id"])

	// The worker delivers the offer push to Bob's device.
	status, body = serviceCall(t, "getTestPush", bob.ID)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "bob-device-"+bob.ID, body["data"].(map[string]any)["token"])

	status, body = call(t, http.MethodGet, "/v1/notifications", bob.Token, nil)
	require.Equal(t, http.StatusOK, status, body)
	notifications := body["data"].([]any)
	require.Len(t, notifications, 1)
	offer := notifications[0].(map[string]any)
	assert.Equal(t, "offer", offer["type"])

	status, body = call(t, http.MethodPost, "/v1/notifications/respond", bob.Token, map[string]any{
		"action": "accept", "notification_id": offer["id"],
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "approved", body["transaction"].(map[string]any)["state"])

	// Both items are gone from the market; the thread survives.
	status, body = call(t, http.MethodGet, "/v1/items/"+phoneID, alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_available"])

	status, body = call(t, http.MethodGet, "/v1/threads", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = call(t, http.MethodGet, "/v1/transactions/history", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = call(t, http.MethodGet, "/v1/notifications", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["data"], 1)
	assert.Equal(t, "accept", body["data"].([]any)[0].(map[string]any)["type"])
}
