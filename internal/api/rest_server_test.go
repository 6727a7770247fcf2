package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/protocol"
	"github.com/annel0/voxel-terrain/internal/scene"
	"github.com/annel0/voxel-terrain/internal/sim"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/annel0/voxel-terrain/internal/world/tile"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "inspector-test-secret-0123456789"
	testOrigin = "http://localhost:3000"
)

type inspectorFixture struct {
	server *InspectorServer
	loop   *sim.Loop
	codec  *protocol.GeometryCodec
	scene  *scene.Scene
	token  string
}

func newInspectorFixture(t *testing.T) *inspectorFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := protocol.NewGeometryCodec()
	require.NoError(t, err)
	t.Cleanup(codec.Close)

	logger := logging.NewWriterLogger("inspector", io.Discard, logging.ERROR)
	sc := scene.New()
	loop := sim.NewLoop(sim.Options{
		Logger:  logger,
		Terrain: world.NewTerrain(),
		Mesher:  world.NewMesher(tile.OccludeAnySolid),
		Factory: sc,
	})

	server := NewInspectorServer(Config{
		Loop:     loop,
		Codec:    codec,
		Scene:    sc,
		Registry: prometheus.NewRegistry(),
		Logger:   logger,

		JWTSecret:      []byte(testSecret),
		AllowedOrigins: []string{testOrigin},
	})
	token, err := IssueToken([]byte(testSecret), "tester", true, time.Hour)
	require.NoError(t, err)
	return &inspectorFixture{server: server, loop: loop, codec: codec, scene: sc, token: token}
}

// do выполняет запрос с токеном правки
func (f *inspectorFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return f.doAs(t, "Bearer "+f.token, method, path, body, nil)
}

// doAs выполняет запрос с заданным Authorization (пустой - анонимно) и доп. заголовками
func (f *inspectorFixture) doAs(t *testing.T, authorization, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (envelope, T) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	var data T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return env, data
}

func TestInspector_Health(t *testing.T) {
	f := newInspectorFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestInspector_TileRoundTrip(t *testing.T) {
	f := newInspectorFixture(t)

	w := f.do(t, http.MethodPut, "/api/tiles/5/5/5", TileRequest{Kind: "brick", Color: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env, written := decode[TileResponse](t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "brick", written.Kind)
	require.NotNil(t, written.Color)
	assert.Equal(t, 3, *written.Color)
	assert.False(t, written.Empty)
	assert.True(t, written.Dirty, "правка должна пометить чанк грязным")

	w = f.do(t, http.MethodGet, "/api/tiles/5/5/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, read := decode[TileResponse](t, w)
	assert.Equal(t, [3]int64{5, 5, 5}, read.Position)
	assert.Equal(t, vec.Vec3{}, read.Chunk)
	assert.Equal(t, [3]uint8{5, 5, 5}, read.Local)
	assert.Equal(t, "brick", read.Kind)

	f.loop.Tick(context.Background())

	w = f.do(t, http.MethodGet, "/api/tiles/5/5/5", nil)
	_, read = decode[TileResponse](t, w)
	assert.False(t, read.Dirty, "после прохода чанк чистый")
}

func TestInspector_NegativeCoordinates(t *testing.T) {
	f := newInspectorFixture(t)

	w := f.do(t, http.MethodPut, "/api/tiles/-1/-1/-17", TileRequest{Kind: "brick", Color: 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, resp := decode[TileResponse](t, w)

	assert.Equal(t, vec.Vec3{X: -1, Y: -1, Z: -2}, resp.Chunk)
	assert.Equal(t, [3]uint8{15, 15, 15}, resp.Local)
	assert.Equal(t, [3]int64{-1, -1, -17}, resp.Position)
}

func TestInspector_EmptyKindRemoves(t *testing.T) {
	f := newInspectorFixture(t)

	f.do(t, http.MethodPut, "/api/tiles/1/2/3", TileRequest{Kind: "brick", Color: 7})
	w := f.do(t, http.MethodPut, "/api/tiles/1/2/3", TileRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	_, resp := decode[TileResponse](t, w)
	assert.True(t, resp.Empty)
	assert.Nil(t, resp.Color)

	f.loop.Read(func(tr *world.Terrain) {
		assert.Equal(t, 0, tr.ChunkCount(), "пустой чанк должен быть удалён")
	})
}

func TestInspector_DeleteTile(t *testing.T) {
	f := newInspectorFixture(t)

	f.do(t, http.MethodPut, "/api/tiles/5/5/5", TileRequest{Kind: "brick", Color: 1})
	f.loop.Tick(context.Background())

	w := f.do(t, http.MethodDelete, "/api/tiles/5/5/5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, resp := decode[TileResponse](t, w)
	assert.True(t, resp.Empty)

	f.loop.Tick(context.Background())

	w = f.do(t, http.MethodGet, "/api/meshes", nil)
	_, meshes := decode[struct {
		Total int `json:"total"`
	}](t, w)
	assert.Equal(t, 0, meshes.Total)

	spawned, dropped := f.scene.Stats()
	assert.Equal(t, uint64(1), spawned)
	assert.Equal(t, uint64(1), dropped)
}

func TestInspector_BadRequests(t *testing.T) {
	f := newInspectorFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"нечисловая координата", http.MethodGet, "/api/tiles/a/0/0", nil},
		{"цвет вне палитры", http.MethodPut, "/api/tiles/0/0/0", TileRequest{Kind: "brick", Color: 62}},
		{"отрицательный цвет", http.MethodPut, "/api/tiles/0/0/0", TileRequest{Kind: "brick", Color: -1}},
		{"неизвестный вид", http.MethodPut, "/api/tiles/0/0/0", TileRequest{Kind: "lava", Color: 1}},
		{"координата чанка вне int32", http.MethodGet, "/api/meshes/0/0/99999999999", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env, _ := decode[json.RawMessage](t, w)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}

	f.loop.Read(func(tr *world.Terrain) {
		assert.Equal(t, 0, tr.ChunkCount(), "ошибочные запросы не меняют ландшафт")
	})
}

func TestInspector_ChunksAndMeshes(t *testing.T) {
	f := newInspectorFixture(t)

	f.do(t, http.MethodPut, "/api/tiles/5/5/5", TileRequest{Kind: "brick", Color: 2})
	f.do(t, http.MethodPut, "/api/tiles/21/5/5", TileRequest{Kind: "brick", Color: 2})

	w := f.do(t, http.MethodGet, "/api/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, chunks := decode[struct {
		Chunks []ChunkInfo `json:"chunks"`
		Total  int         `json:"total"`
	}](t, w)
	require.Equal(t, 2, chunks.Total)
	assert.Equal(t, vec.Vec3{}, chunks.Chunks[0].Chunk)
	assert.Equal(t, vec.Vec3{X: 1}, chunks.Chunks[1].Chunk)
	for _, c := range chunks.Chunks {
		assert.Equal(t, 1, c.Occupied)
		assert.True(t, c.Dirty)
		assert.False(t, c.HasMesh)
	}

	f.loop.Tick(context.Background())

	w = f.do(t, http.MethodGet, "/api/meshes", nil)
	_, meshes := decode[struct {
		Meshes []MeshInfo `json:"meshes"`
		Total  int        `json:"total"`
	}](t, w)
	require.Equal(t, 2, meshes.Total)
	second := meshes.Meshes[1]
	assert.Equal(t, vec.Vec3{X: 1}, second.Chunk)
	assert.Equal(t, vec.Vec3Float{X: 16}, second.Placement)
	assert.Equal(t, 144, second.Vertices)
	assert.Equal(t, 48, second.Triangles)
	assert.Equal(t, second.Bounds.Translate(second.Placement), second.WorldBounds)
	assert.NotEmpty(t, second.ID)
}

func TestInspector_MeshExport(t *testing.T) {
	f := newInspectorFixture(t)

	f.do(t, http.MethodPut, "/api/tiles/5/5/5", TileRequest{Kind: "brick", Color: 9})
	f.loop.Tick(context.Background())

	w := f.do(t, http.MethodGet, "/api/meshes/0/0/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, mesh := decode[world.Mesh](t, w)
	assert.Equal(t, 144, mesh.Geometry.VertexCount())
	assert.Len(t, mesh.Geometry.Normals, 144)
	assert.Len(t, mesh.Geometry.UVs, 144)

	w = f.do(t, http.MethodGet, "/api/meshes/0/0/0?format=zstd", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zstd", w.Header().Get("Content-Type"))
	geometry, err := f.codec.Decode(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, mesh.Geometry.Positions, geometry.Positions)

	w = f.do(t, http.MethodGet, "/api/meshes/3/3/3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInspector_MeshExportWithoutCodec(t *testing.T) {
	f := newInspectorFixture(t)
	f.server.codec = nil

	f.do(t, http.MethodPut, "/api/tiles/5/5/5", TileRequest{Kind: "brick", Color: 9})
	f.loop.Tick(context.Background())

	w := f.do(t, http.MethodGet, "/api/meshes/0/0/0?format=zstd", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestInspector_ClearAndStats(t *testing.T) {
	f := newInspectorFixture(t)

	f.do(t, http.MethodPut, "/api/tiles/5/5/5", TileRequest{Kind: "brick", Color: 4})
	f.loop.Tick(context.Background())

	w := f.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, stats := decode[TerrainStats](t, w)
	assert.Equal(t, uint64(1), stats.Tick)
	assert.Equal(t, "any_solid", stats.Policy)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 0, stats.DirtyChunks)
	assert.Equal(t, 1, stats.Meshes)
	assert.Equal(t, 144, stats.Vertices)
	assert.Equal(t, uint64(1), stats.MeshesSpawned)
	assert.NotEmpty(t, stats.Process.Uptime)
	assert.Positive(t, stats.Process.Goroutines)

	w = f.do(t, http.MethodPost, "/api/terrain/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)

	f.loop.Tick(context.Background())

	w = f.do(t, http.MethodGet, "/api/stats", nil)
	_, stats = decode[TerrainStats](t, w)
	assert.Equal(t, 0, stats.Chunks)
	assert.Equal(t, 0, stats.Meshes)
	assert.Equal(t, uint64(1), stats.MeshesDropped)
}

func TestInspector_CORSAndMetrics(t *testing.T) {
	f := newInspectorFixture(t)

	w := f.doAs(t, "", http.MethodOptions, "/api/tiles/0/0/0", nil, map[string]string{"Origin": testOrigin})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	w = f.doAs(t, "", http.MethodOptions, "/api/tiles/0/0/0", nil, map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), "чужой источник не разрешается")

	f.do(t, http.MethodGet, "/api/chunks", nil)

	w = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inspector_http_request_duration_seconds")
	assert.Contains(t, w.Body.String(), `path="/api/chunks"`)
}

func TestInspector_EditRequiresToken(t *testing.T) {
	f := newInspectorFixture(t)

	f.do(t, http.MethodPut, "/api/tiles/1/2/3", TileRequest{Kind: "brick", Color: 5})
	f.loop.Tick(context.Background())

	expired, err := IssueToken([]byte(testSecret), "tester", true, -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("another-secret-0123456789"), "tester", true, time.Hour)
	require.NoError(t, err)

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPut, "/api/tiles/4/5/6", TileRequest{Kind: "brick", Color: 1}},
		{http.MethodDelete, "/api/tiles/1/2/3", nil},
		{http.MethodPost, "/api/terrain/clear", nil},
	}
	authorizations := map[string]string{
		"без токена":       "",
		"неверный формат":  "Token " + f.token,
		"просроченный":     "Bearer " + expired,
		"чужой секрет":     "Bearer " + foreign,
		"мусор вместо JWT": "Bearer not-a-jwt",
	}
	for name, authorization := range authorizations {
		for _, r := range requests {
			w := f.doAs(t, authorization, r.method, r.path, r.body, map[string]string{"Origin": "https://evil.example"})
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s: %s %s", name, r.method, r.path)
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			env, _ := decode[json.RawMessage](t, w)
			assert.False(t, env.Success)
		}
	}

	f.loop.Read(func(tr *world.Terrain) {
		assert.Equal(t, 1, tr.ChunkCount(), "анонимные запросы не меняют ландшафт")
		assert.Equal(t, 0, tr.DirtyCount())
		assert.Equal(t, 1, tr.MeshCount())
	})

	w := f.doAs(t, "", http.MethodGet, "/api/tiles/1/2/3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, "чтение доступно без токена")
	_, resp := decode[TileResponse](t, w)
	assert.Equal(t, "brick", resp.Kind)

	w = f.do(t, http.MethodPost, "/api/terrain/clear", nil)
	assert.Equal(t, http.StatusOK, w.Code, "валидный токен пропускается")
}

func TestInspector_ReadOnlyTokenForbidden(t *testing.T) {
	f := newInspectorFixture(t)

	viewer, err := IssueToken([]byte(testSecret), "viewer", false, time.Hour)
	require.NoError(t, err)

	w := f.doAs(t, "Bearer "+viewer, http.MethodPut, "/api/tiles/0/0/0", TileRequest{Kind: "brick", Color: 1}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.doAs(t, "Bearer "+viewer, http.MethodGet, "/api/tiles/0/0/0", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInspector_EditDisabledWithoutSecret(t *testing.T) {
	f := newInspectorFixture(t)
	f.server.jwtSecret = nil

	w := f.do(t, http.MethodPost, "/api/terrain/clear", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env, _ := decode[json.RawMessage](t, w)
	assert.Contains(t, env.Message, "секрет")
}

func TestValidateToken(t *testing.T) {
	secret := []byte(testSecret)

	token, err := IssueToken(secret, "editor", true, time.Hour)
	require.NoError(t, err)
	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.Subject)
	assert.True(t, claims.CanEdit)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateToken(secret, unsigned)
	assert.Error(t, err, "алгоритм none отклоняется")

	foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &EditorClaims{
		CanEdit: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ValidateToken(secret, foreignIssuer)
	assert.Error(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &EditorClaims{
		CanEdit:          true,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ValidateToken(secret, noExpiry)
	assert.Error(t, err, "токен без срока действия отклоняется")

	_, err = IssueToken(nil, "editor", true, time.Hour)
	assert.Error(t, err)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5e9))
	assert.Equal(t, "2м 5с", formatUptime(125e9))
	assert.Equal(t, "1ч 0м 1с", formatUptime(3601e9))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(25*3600e9))
}
