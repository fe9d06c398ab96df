// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"interview-coach-go/internal/config"
	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/log"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(client, esCfg.IndexName)
}

const answerIndexMapping = `{
	"mappings": {
		"properties": {
			"doc_id": { "type": "keyword" },
			"session_id": { "type": "keyword" },
			"user_id": { "type": "long" },
			"subtopic_id": { "type": "long" },
			"language": { "type": "keyword" },
			"position": { "type": "integer" },
			"question": { "type": "text" },
			"answer": { "type": "text" },
			"score": { "type": "integer" },
			"created_at": { "type": "date", "format": "strict_date_optional_time||epoch_millis" }
		}
	}
}`

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(answerIndexMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// AnswerIndex 读写已归档的问答文档。
type AnswerIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewAnswerIndex 基于给定客户端和索引名创建 AnswerIndex。
func NewAnswerIndex(client *elasticsearch.Client, index string) *AnswerIndex {
	return &AnswerIndex{client: client, index: index}
}

// IndexAnswer 将单个问答文档写入索引，DocID 相同的文档会被覆盖，保证重试幂等。
func (a *AnswerIndex) IndexAnswer(ctx context.Context, doc model.AnswerDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      a.index,
		DocumentID: doc.DocID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

// SearchAnswers 在指定用户已归档的问答中做全文检索。
func (a *AnswerIndex) SearchAnswers(ctx context.Context, userID uint, query string, size int) ([]model.AnswerSearchDTO, error) {
	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"question^2", "answer"},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"user_id": userID}},
				},
			},
		},
		"size": size,
	}
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := a.client.Search(
		a.client.Search.WithContext(ctx),
		a.client.Search.WithIndex(a.index),
		a.client.Search.WithBody(&buf),
		a.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}
	return decodeSearchResponse(res.Body)
}

func decodeSearchResponse(body io.Reader) ([]model.AnswerSearchDTO, error) {
	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.AnswerDocument `json:"_source"`
				Score  float64              `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.AnswerSearchDTO, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.AnswerSearchDTO{
			SessionID: hit.Source.SessionID,
			Position:  hit.Source.Position,
			Question:  hit.Source.Question,
			Answer:    hit.Source.Answer,
			Score:     hit.Source.Score,
			Relevance: hit.Score,
		})
	}
	return results, nil
}
