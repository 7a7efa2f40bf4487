package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGateway(t *testing.T) {
	router := newRouter()
	router.GET("/v1/auth/idexists/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, c.Param("id") == "alice")
	})
	router.POST("/v1/auth/code", func(c *gin.Context) {
		var req AuthCodeRequest
		assert.NoError(t, c.ShouldBindJSON(&req))
		c.JSON(http.StatusOK, gin.H{"authCode": "code-for-" + req.UserID + "-" + req.JoinCode})
	})
	router.POST("/v1/auth/token", func(c *gin.Context) {
		var req AuthTokenRequest
		assert.NoError(t, c.ShouldBindJSON(&req))
		if req.Signature != "deadbeef" {
			c.JSON(http.StatusUnauthorized, gin.H{"title": "invalid signature"})
			return
		}
		c.JSON(http.StatusOK, TokenResponse{
			AccessToken:         "access",
			RefreshToken:        "refresh",
			AccessTokenExpires:  1000,
			RefreshTokenExpires: 2000,
		})
	})
	router.POST("/v1/auth/refresh", func(c *gin.Context) {
		assert.Equal(t, "Bearer refresh", c.GetHeader("Authorization"))
		c.JSON(http.StatusOK, TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"})
	})
	router.POST("/v1/auth/logout", func(c *gin.Context) {
		assert.Equal(t, "Bearer access", c.GetHeader("Authorization"))
		c.Status(http.StatusOK)
	})
	router.GET("/v1/auth/validtoken", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer access" {
			c.JSON(http.StatusUnauthorized, gin.H{"title": "expired"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": "alice"})
	})

	gateway := NewAuthGateway(newFakeGateway(t, router, ClientConfig{}))
	ctx := context.Background()

	t.Run("Success_IDExists", func(t *testing.T) {
		exists, err := gateway.IDExists(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = gateway.IDExists(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Success_AuthCodeWithJoinCode", func(t *testing.T) {
		code, err := gateway.AuthCode(ctx, AuthCodeRequest{UserID: "alice", JoinCode: "j1"})
		require.NoError(t, err)
		assert.Equal(t, "code-for-alice-j1", code)
	})

	t.Run("Success_AuthToken", func(t *testing.T) {
		tokens, err := gateway.AuthToken(ctx, AuthTokenRequest{UserID: "alice", Signature: "deadbeef"})
		require.NoError(t, err)
		assert.Equal(t, "access", tokens.AccessToken)
		assert.Equal(t, "refresh", tokens.RefreshToken)
		assert.Equal(t, int64(1000), tokens.AccessTokenExpires)
		assert.Equal(t, int64(2000), tokens.RefreshTokenExpires)
	})

	t.Run("Error_AuthTokenRejected", func(t *testing.T) {
		tokens, err := gateway.AuthToken(ctx, AuthTokenRequest{UserID: "alice", Signature: "00"})
		assert.Nil(t, tokens)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("Success_Refresh", func(t *testing.T) {
		tokens, err := gateway.Refresh(ctx, "refresh")
		require.NoError(t, err)
		assert.Equal(t, "access-2", tokens.AccessToken)
	})

	t.Run("Success_LogoutAndValidToken", func(t *testing.T) {
		assert.NoError(t, gateway.Logout(ctx, "access"))

		info, err := gateway.ValidToken(ctx, "access")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"alice"}`, string(info))

		_, err = gateway.ValidToken(ctx, "stale")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})
}

func TestSQLGateway(t *testing.T) {
	var (
		mu     sync.Mutex
		body   map[string]any
		origin string
	)
	capture := func(c *gin.Context) {
		var in map[string]any
		assert.NoError(t, c.ShouldBindJSON(&in))
		mu.Lock()
		body, origin = in, c.GetHeader("originApp")
		mu.Unlock()
		c.JSON(http.StatusOK, []gin.H{{"N": 1}})
	}
	lastRequest := func() (map[string]any, string) {
		mu.Lock()
		defer mu.Unlock()
		return body, origin
	}

	router := newRouter()
	router.POST("/v1/sql", capture)
	router.POST("/v1/sql/ddl", capture)
	router.POST("/v1/sql/dml", capture)
	router.POST("/v1/sql/dql", capture)
	router.GET("/v2/discover/schema", func(c *gin.Context) {
		assert.Equal(t, "PUBLIC", c.Query("scope"))
		c.JSON(http.StatusOK, []gin.H{{"schema": "ETHEREUM"}})
	})
	router.GET("/v2/discover/table/column", func(c *gin.Context) {
		assert.Equal(t, "ETHEREUM", c.Query("schema"))
		assert.Equal(t, "blocks", c.Query("table"))
		c.JSON(http.StatusOK, []gin.H{{"column": "BLOCK_NUMBER"}})
	})

	client := newFakeGateway(t, router, ClientConfig{})
	client.SetTokenSource(TokenSourceFunc(func(context.Context) (string, error) {
		return "access", nil
	}))
	gateway := NewSQLGateway(client)
	ctx := context.Background()

	t.Run("Success_GenericSQLSendsValidateFlag", func(t *testing.T) {
		raw, err := gateway.Execute(ctx, EndpointSQL, SQLRequest{SQLText: "SELECT 1", OriginApp: "tests"})
		require.NoError(t, err)
		assert.JSONEq(t, `[{"N":1}]`, string(raw))
		last, lastOrigin := lastRequest()
		assert.Equal(t, "SELECT 1", last["sqlText"])
		assert.Equal(t, "false", last["validate"])
		assert.Equal(t, []any{}, last["biscuits"])
		assert.Equal(t, "tests", lastOrigin)
		_, hasResources := last["resources"]
		assert.False(t, hasResources)
	})

	t.Run("Success_DQLSendsResources", func(t *testing.T) {
		_, err := gateway.Execute(ctx, EndpointSQLDQL, SQLRequest{
			SQLText:   "SELECT * FROM s.t",
			Biscuits:  []string{"b1"},
			Resources: []string{"s.t"},
		})
		require.NoError(t, err)
		last, lastOrigin := lastRequest()
		assert.Equal(t, []any{"b1"}, last["biscuits"])
		assert.Equal(t, []any{"s.t"}, last["resources"])
		_, hasValidate := last["validate"]
		assert.False(t, hasValidate)
		assert.Empty(t, lastOrigin)
	})

	t.Run("Success_DDLOmitsResources", func(t *testing.T) {
		_, err := gateway.Execute(ctx, EndpointSQLDDL, SQLRequest{
			SQLText:   "CREATE TABLE s.t (id INT)",
			Biscuits:  []string{"b1"},
			Resources: []string{"s.t"},
		})
		require.NoError(t, err)
		last, _ := lastRequest()
		_, hasResources := last["resources"]
		assert.False(t, hasResources)
	})

	t.Run("Error_NotASQLEndpoint", func(t *testing.T) {
		_, err := gateway.Execute(ctx, EndpointAuthCode, SQLRequest{SQLText: "SELECT 1"})
		assert.ErrorIs(t, err, ErrEndpointNotDefined)
	})

	t.Run("Success_Discovery", func(t *testing.T) {
		schemas, err := gateway.Schemas(ctx, ScopePublic)
		require.NoError(t, err)
		require.Len(t, schemas, 1)
		assert.Equal(t, json.RawMessage(`"ETHEREUM"`), schemas[0]["schema"])

		columns, err := gateway.Columns(ctx, "ethereum", "blocks")
		require.NoError(t, err)
		require.Len(t, columns, 1)
	})
}
