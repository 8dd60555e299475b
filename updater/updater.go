package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"haruki-sprite-action/config"
	"haruki-sprite-action/utils"
	"haruki-sprite-action/utils/spritecodecs/act"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/dlclark/regexp2"
	"github.com/go-resty/resty/v2"
)

type HarukiActUpdater struct {
	ctx             context.Context
	server          string
	serverConfig    utils.HarukiActUpdaterConfig
	exportConfig    config.ExportConfig
	exportFormat    utils.HarukiExportFormat
	remoteStorages  []config.RemoteStorageConfig
	uploadSem       int
	decoder         *act.Decoder
	maxFileSize     int
	includePatterns []*regexp2.Regexp
	skipPatterns    []*regexp2.Regexp
	names           []string
	sem             int
	retryDelay      time.Duration
	client          *resty.Client
}

func compilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	compiled := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		re.MatchTimeout = time.Second
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func NewHarukiActUpdater(
	ctx context.Context,
	server string,
	cfg config.Config,
	names []string,
) (*HarukiActUpdater, error) {
	serverConfig, ok := cfg.Servers[server]
	if !ok {
		return nil, fmt.Errorf("server %s not found in configuration", server)
	}
	textEncoding, err := utils.LookupTextEncoding(cfg.Decoder.TextEncoding)
	if err != nil {
		return nil, err
	}
	exportFormat, err := utils.ParseExportFormat(cfg.Export.Format)
	if err != nil {
		return nil, err
	}
	includePatterns, err := compilePatterns(serverConfig.IncludePatterns)
	if err != nil {
		return nil, err
	}
	skipPatterns, err := compilePatterns(serverConfig.SkipPatterns)
	if err != nil {
		return nil, err
	}
	sem := cfg.Concurrents.ConcurrentDownload
	if sem <= 0 {
		sem = 4
	}

	client := resty.New()
	client.
		SetRetryCount(0).
		SetTransport(&http.Transport{
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   false,
		}).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", "HarukiSpriteAction/"+config.Version).
		SetHeader("Connection", "keep-alive").
		SetHeaders(serverConfig.Headers)
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	return &HarukiActUpdater{
		ctx:             ctx,
		server:          server,
		serverConfig:    serverConfig,
		exportConfig:    cfg.Export,
		exportFormat:    exportFormat,
		remoteStorages:  cfg.RemoteStorages,
		uploadSem:       cfg.Concurrents.ConcurrentUpload,
		decoder:         act.NewDecoder(textEncoding),
		maxFileSize:     cfg.Decoder.MaxFileSize,
		includePatterns: includePatterns,
		skipPatterns:    skipPatterns,
		names:           names,
		sem:             sem,
		retryDelay:      time.Second,
		client:          client,
	}, nil
}

func (u *HarukiActUpdater) loadProcessedRecord() (map[string]string, error) {
	var record map[string]string
	if u.serverConfig.ProcessedRecordFile == "" {
		return make(map[string]string), nil
	}
	data, err := os.ReadFile(u.serverConfig.ProcessedRecordFile)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	if err = sonic.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if record == nil {
		record = make(map[string]string)
	}
	return record, nil
}

func (u *HarukiActUpdater) saveProcessedRecord(record map[string]string) error {
	if u.serverConfig.ProcessedRecordFile == "" {
		return nil
	}
	data, err := sonic.Marshal(record)
	if err != nil {
		return err
	}
	if err = os.WriteFile(u.serverConfig.ProcessedRecordFile, data, 0o644); err != nil {
		return err
	}
	return nil
}

const requestAttempts = 4

func (u *HarukiActUpdater) request(url string) (*resty.Response, error) {
	var lastErr error
	for attempt := 0; attempt < requestAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-u.ctx.Done():
				return nil, u.ctx.Err()
			case <-time.After(u.retryDelay):
			}
		}
		resp, err := u.client.R().
			SetContext(u.ctx).
			Get(url)
		if err != nil {
			lastErr = err
			if u.ctx.Err() != nil {
				return nil, u.ctx.Err()
			}
			continue
		}
		if resp.StatusCode() < 500 {
			return resp, nil
		}
		lastErr = fmt.Errorf("server error: %s", resp.Status())
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("request failed after retries")
}

// actNames collects the configured names, the remote list and the payload
// names, deduplicated and sorted.
func (u *HarukiActUpdater) actNames() ([]string, error) {
	seen := make(map[string]struct{})
	add := func(names []string) {
		for _, n := range names {
			if n != "" {
				seen[n] = struct{}{}
			}
		}
	}
	if len(u.names) > 0 {
		add(u.names)
	} else {
		add(u.serverConfig.ActNames)
		if u.serverConfig.ActListURL != "" {
			listURL := u.serverConfig.ActListURL
			if !strings.Contains(listURL, "?") {
				listURL += utils.GetTimeArg()
			}
			resp, err := u.request(listURL)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch act list: %w", err)
			}
			if resp.StatusCode() != http.StatusOK {
				return nil, fmt.Errorf("failed to fetch act list: %s", resp.Status())
			}
			var listed []string
			if err := sonic.Unmarshal(resp.Body(), &listed); err != nil {
				return nil, fmt.Errorf("failed to parse act list: %w", err)
			}
			add(listed)
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (u *HarukiActUpdater) accept(name string) bool {
	for _, re := range u.skipPatterns {
		if ok, err := re.MatchString(name); err == nil && ok {
			return false
		}
	}
	if len(u.includePatterns) == 0 {
		return true
	}
	for _, re := range u.includePatterns {
		if ok, err := re.MatchString(name); err == nil && ok {
			return true
		}
	}
	return false
}

func (u *HarukiActUpdater) download(name string) ([]byte, error) {
	url, err := u.serverConfig.ActURL(name)
	if err != nil {
		return nil, err
	}
	resp, err := u.request(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s for %s", resp.Status(), url)
	}
	body := resp.Body()
	if u.maxFileSize > 0 && len(body) > u.maxFileSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", name, len(body), u.maxFileSize)
	}
	return body, nil
}

func contentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Run fetches, decodes and exports every accepted act file. A file that fails
// to download or decode is reported in the result and does not stop the run.
func (u *HarukiActUpdater) Run() (*HarukiActUpdaterResult, error) {
	result := &HarukiActUpdaterResult{Server: u.server}
	names, err := u.actNames()
	if err != nil {
		return nil, err
	}
	record, err := u.loadProcessedRecord()
	if err != nil {
		return nil, fmt.Errorf("failed to load processed record: %w", err)
	}
	logger.Infof("%s: %d act files listed", u.server, len(names))

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, u.sem)
	for _, name := range names {
		if err := utils.CheckActName(name); err != nil {
			logger.Warnf("Rejecting act name: %v", err)
			mu.Lock()
			result.Failed = append(result.Failed, name)
			mu.Unlock()
			continue
		}
		if !u.accept(name) {
			result.Filtered = append(result.Filtered, name)
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			data, err := u.download(name)
			if err != nil {
				logger.Warnf("Failed to download %s: %v", name, err)
				mu.Lock()
				result.Failed = append(result.Failed, name)
				mu.Unlock()
				return
			}
			hash := contentHash(data)
			mu.Lock()
			unchanged := record[name] == hash
			mu.Unlock()
			if unchanged {
				logger.Debugf("%s unchanged, skipping", name)
				mu.Lock()
				result.Unchanged = append(result.Unchanged, name)
				mu.Unlock()
				return
			}

			exported, err := u.processAct(name, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warnf("Failed to process %s: %v", name, err)
				result.Failed = append(result.Failed, name)
				return
			}
			record[name] = hash
			result.Processed = append(result.Processed, name)
			result.Exported = append(result.Exported, exported)
		}(name)
	}
	wg.Wait()

	sort.Strings(result.Processed)
	sort.Strings(result.Unchanged)
	sort.Strings(result.Failed)
	sort.Strings(result.Exported)

	// The record covers exports, not uploads, so it is saved even when an
	// upload fails.
	var uploadErr error
	if u.serverConfig.UploadToCloud && len(result.Exported) > 0 {
		uploadErr = uploadExports(u.ctx, u.remoteStorages, result.Exported, u.exportConfig.OutputDir, u.uploadSem, u.serverConfig.RemoveLocalAfterUpload)
	}
	if err := u.saveProcessedRecord(record); err != nil {
		return result, errors.Join(uploadErr, fmt.Errorf("failed to save processed record: %w", err))
	}
	if uploadErr != nil {
		return result, uploadErr
	}
	logger.Infof("%s: %d processed, %d unchanged, %d filtered, %d failed",
		u.server, len(result.Processed), len(result.Unchanged), len(result.Filtered), len(result.Failed))
	return result, nil
}

func (u *HarukiActUpdater) Close() {
	u.client = nil
}
