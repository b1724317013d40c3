package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"crypto_tracker/models"

	"github.com/sirupsen/logrus"
)

// ========== 历史数据存储 ==========

// HistoryStore 历史数据存储
// 以显式对象形式在运行开始时加载、运行结束时写回，不使用进程级单例。
// 键为币种ID，与HistoricalEntry.CoinID一致。
type HistoryStore struct {
	Entries map[string]*models.HistoricalEntry
}

// NewHistoryStore 创建空的历史数据存储
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		Entries: make(map[string]*models.HistoricalEntry),
	}
}

// Len 返回存储中的条目数量
func (s *HistoryStore) Len() int {
	return len(s.Entries)
}

// LoadHistoryStore 从磁盘加载历史数据
// 文件不存在视为空存储；文件损坏记录警告后同样视为空存储重建，不作为致命错误
func LoadHistoryStore(path string) *HistoryStore {
	store := NewHistoryStore()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("读取历史数据文件失败，按空存储重建 %s: %v", path, err)
		}
		return store
	}

	var entries map[string]*models.HistoricalEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logrus.Warnf("历史数据文件损坏，按空存储重建 %s: %v", path, err)
		return store
	}

	// 条目内键与CoinID不一致时以键为准
	for id, entry := range entries {
		if entry == nil {
			continue
		}
		entry.CoinID = id
		store.Entries[id] = entry
	}

	logrus.Debugf("历史数据加载完成: %d 个币种", store.Len())
	return store
}

// ========== 产物写入 ==========

// ArtifactWriter 产物写入器
// 两个产物先写入同目录下的临时文件再整体rename，运行中途失败不会留下半更新的产物
type ArtifactWriter struct {
	dataPath    string // 榜单产物路径
	historyPath string // 历史产物路径
}

// NewArtifactWriter 创建产物写入器
func NewArtifactWriter(dataPath, historyPath string) *ArtifactWriter {
	return &ArtifactWriter{
		dataPath:    dataPath,
		historyPath: historyPath,
	}
}

// HistoryPath 返回历史产物路径
func (w *ArtifactWriter) HistoryPath() string {
	return w.historyPath
}

// DataPath 返回榜单产物路径
func (w *ArtifactWriter) DataPath() string {
	return w.dataPath
}

// WriteAll 写入两个产物
// 先落盘两个临时文件，全部成功后才依次rename替换，任一步失败时已发布的产物保持不变
func (w *ArtifactWriter) WriteAll(snapshot *models.RankingSnapshot, store *HistoryStore) error {
	dataBytes, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化榜单失败: %w", err)
	}

	historyBytes, err := json.MarshalIndent(store.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化历史数据失败: %w", err)
	}

	tmpData, err := writeTemp(w.dataPath, dataBytes)
	if err != nil {
		return fmt.Errorf("写入榜单临时文件失败: %w", err)
	}

	tmpHistory, err := writeTemp(w.historyPath, historyBytes)
	if err != nil {
		os.Remove(tmpData)
		return fmt.Errorf("写入历史临时文件失败: %w", err)
	}

	if err := os.Rename(tmpData, w.dataPath); err != nil {
		os.Remove(tmpData)
		os.Remove(tmpHistory)
		return fmt.Errorf("替换榜单产物失败: %w", err)
	}

	if err := os.Rename(tmpHistory, w.historyPath); err != nil {
		os.Remove(tmpHistory)
		return fmt.Errorf("替换历史产物失败: %w", err)
	}

	logrus.Infof("产物写入完成: %s, %s", w.dataPath, w.historyPath)
	return nil
}

// writeTemp 在目标文件同目录下写入临时文件并落盘，返回临时文件路径
// 临时文件必须与目标同目录，跨文件系统的rename不是原子操作
func writeTemp(target string, data []byte) (string, error) {
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}
