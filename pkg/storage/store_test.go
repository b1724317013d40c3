package storage_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crypto_tracker/models"
	"crypto_tracker/pkg/storage"
)

func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "crypto_data.json"), filepath.Join(dir, "crypto_history.json")
}

func testSnapshot() *models.RankingSnapshot {
	change := 2.5
	return &models.RankingSnapshot{
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		RunID:       "test-run",
		TopGainers: []models.CoinObservation{{
			ID:              "bitcoin",
			Symbol:          "BTC",
			Name:            "Bitcoin",
			CurrentPrice:    50000,
			PercentChange1h: &change,
		}},
		TopLosers: []models.CoinObservation{},
	}
}

func testStore() *storage.HistoryStore {
	store := storage.NewHistoryStore()
	store.Entries["bitcoin"] = &models.HistoricalEntry{
		CoinID: "bitcoin",
		Symbol: "BTC",
		Name:   "Bitcoin",
		Points: []models.DataPoint{{
			Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Price:         50000,
			PercentChange: 2.5,
			Samples:       1,
		}},
		LastSeen: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Active:   true,
	}
	return store
}

// ========== 历史数据加载测试 ==========

func TestLoadHistoryStoreMissingFile(t *testing.T) {
	_, historyPath := testPaths(t)

	store := storage.LoadHistoryStore(historyPath)
	if store.Len() != 0 {
		t.Fatalf("文件不存在时应返回空存储: 实际 %d 个条目", store.Len())
	}
}

func TestLoadHistoryStoreCorruptFile(t *testing.T) {
	_, historyPath := testPaths(t)
	if err := os.WriteFile(historyPath, []byte("{不是合法的JSON"), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	store := storage.LoadHistoryStore(historyPath)
	if store.Len() != 0 {
		t.Fatalf("文件损坏时应按空存储重建: 实际 %d 个条目", store.Len())
	}
}

func TestWriteAllRoundtrip(t *testing.T) {
	dataPath, historyPath := testPaths(t)
	writer := storage.NewArtifactWriter(dataPath, historyPath)

	if err := writer.WriteAll(testSnapshot(), testStore()); err != nil {
		t.Fatalf("写入产物失败: %v", err)
	}

	// 历史产物可完整读回
	loaded := storage.LoadHistoryStore(historyPath)
	if loaded.Len() != 1 {
		t.Fatalf("读回的条目数量错误: 期望 1, 实际 %d", loaded.Len())
	}
	entry := loaded.Entries["bitcoin"]
	if entry == nil || entry.CoinID != "bitcoin" || len(entry.Points) != 1 {
		t.Fatalf("读回的条目内容错误: %+v", entry)
	}

	// 榜单产物为合法JSON且字段完整
	data, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("读取榜单产物失败: %v", err)
	}
	var snapshot models.RankingSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("榜单产物不是合法JSON: %v", err)
	}
	if snapshot.RunID != "test-run" || len(snapshot.TopGainers) != 1 {
		t.Fatalf("榜单产物内容错误: %+v", snapshot)
	}
}

// ========== 原子性测试 ==========

func TestWriteAllFailureKeepsPreviousArtifacts(t *testing.T) {
	dataPath, historyPath := testPaths(t)
	writer := storage.NewArtifactWriter(dataPath, historyPath)

	// 先发布一轮产物
	if err := writer.WriteAll(testSnapshot(), testStore()); err != nil {
		t.Fatalf("写入初始产物失败: %v", err)
	}
	before, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("读取初始产物失败: %v", err)
	}
	beforeHistory, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("读取初始历史产物失败: %v", err)
	}

	// 历史产物指向不存在的目录：榜单临时文件已写入但历史临时文件写入失败
	broken := storage.NewArtifactWriter(dataPath, filepath.Join(filepath.Dir(historyPath), "missing-dir", "crypto_history.json"))
	if err := broken.WriteAll(testSnapshot(), testStore()); err == nil {
		t.Fatal("写入不存在的目录应失败")
	}

	// 已发布的产物保持逐字节不变
	after, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("读取产物失败: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("失败的运行不应改动已发布的榜单产物")
	}
	afterHistory, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("读取历史产物失败: %v", err)
	}
	if !bytes.Equal(beforeHistory, afterHistory) {
		t.Error("失败的运行不应改动已发布的历史产物")
	}

	// 临时文件已清理
	entries, err := os.ReadDir(filepath.Dir(dataPath))
	if err != nil {
		t.Fatalf("读取产物目录失败: %v", err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(dataPath) && e.Name() != filepath.Base(historyPath) {
			t.Errorf("产物目录残留临时文件: %s", e.Name())
		}
	}
}
