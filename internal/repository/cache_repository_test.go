package repository

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"testing"
	"time"
)

var cacheKeys = []string{"document:state:doc-1", "document:state-version:doc-1"}

func TestCacheRepository_SetAndGetState(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(&config.RedisClient{Client: client}, 5*time.Minute)

	state := &model.DocumentState{DocumentUUID: "doc-1", Status: model.StatusSigned}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	mock.ExpectEvalSha(setStateScript.Hash(), cacheKeys, "0", string(data), int64(300000)).SetVal(int64(1))
	mock.ExpectGet("document:state:doc-1").SetVal(string(data))

	stored, err := repo.SetState(context.Background(), state, 0)
	require.NoError(t, err)
	assert.True(t, stored)

	cached, err := repo.GetState(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSigned, cached.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepository_SetState_StaleVersionIsSkipped(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(&config.RedisClient{Client: client}, time.Minute)

	state := &model.DocumentState{DocumentUUID: "doc-1", Status: model.StatusPendingSignature}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	// an invalidation moved the counter past 4 while the state was being read
	mock.ExpectEvalSha(setStateScript.Hash(), cacheKeys, "4", string(data), int64(60000)).SetVal(int64(0))

	stored, err := repo.SetState(context.Background(), state, 4)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepository_SetState_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(&config.RedisClient{Client: client}, time.Minute)

	state := &model.DocumentState{DocumentUUID: "doc-1", Status: model.StatusDraft}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	mock.ExpectEvalSha(setStateScript.Hash(), cacheKeys, "0", string(data), int64(60000)).
		SetErr(errors.New("redis down"))

	stored, err := repo.SetState(context.Background(), state, 0)
	assert.False(t, stored)
	assert.ErrorContains(t, err, "redis down")
}

func TestCacheRepository_StateVersion(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(&config.RedisClient{Client: client}, time.Minute)

	mock.ExpectGet("document:state-version:doc-1").RedisNil()
	mock.ExpectGet("document:state-version:doc-1").SetVal("7")

	version, err := repo.StateVersion(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Zero(t, version)

	version, err = repo.StateVersion(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepository_GetState_Miss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(&config.RedisClient{Client: client}, time.Minute)

	mock.ExpectGet("document:state:doc-1").RedisNil()

	cached, err := repo.GetState(context.Background(), "doc-1")
	assert.NoError(t, err)
	assert.Nil(t, cached)
}

func TestCacheRepository_DeleteState_BumpsVersion(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(&config.RedisClient{Client: client}, time.Minute)

	mock.ExpectTxPipeline()
	mock.ExpectIncr("document:state-version:doc-1").SetVal(5)
	mock.ExpectExpire("document:state-version:doc-1", stateVersionTTL).SetVal(true)
	mock.ExpectDel("document:state:doc-1").SetVal(1)
	mock.ExpectTxPipelineExec()

	assert.NoError(t, repo.DeleteState(context.Background(), "doc-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
