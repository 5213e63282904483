package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"match-service/internal/catalog"
	"match-service/internal/config"
	"match-service/internal/fileio"
	"match-service/internal/mapping"
	"match-service/internal/resolve/model"
	"match-service/internal/resolve/service"
)

// Resolve принимает одну позицию заказа или массив позиций в JSON и
// возвращает результаты в том же порядке.
func Resolve(cfg config.Config, logger zerolog.Logger, res *service.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(logger, r)
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		body = bytes.TrimSpace(body)
		if len(body) == 0 {
			writeError(w, http.StatusBadRequest, "empty body")
			return
		}

		// Массив или одиночный объект, различаем по первому символу.
		if body[0] == '[' {
			var lines []model.OrderLine
			if err := json.Unmarshal(body, &lines); err != nil {
				writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
				return
			}
			results := res.ResolveBatch(r.Context(), lines, cfg.Workers)
			writeJSON(w, http.StatusOK, results)
			log.Info().Int("lines", len(lines)).Dur("elapsed", time.Since(start)).Msg("resolve batch done")
			return
		}

		var line model.OrderLine
		if err := json.Unmarshal(body, &line); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		result := res.Resolve(r.Context(), line)
		writeJSON(w, http.StatusOK, result)
		log.Info().
			Str("match_type", string(result.MatchType)).
			Int("confidence", result.Confidence).
			Dur("elapsed", time.Since(start)).
			Msg("resolve done")
	}
}

// ResolveFile читает файл заказа (CSV/XLS/XLSX, кодировка определяется
// автоматически) и прогоняет каждую строку через каскад.
func ResolveFile(cfg config.Config, logger zerolog.Logger, res *service.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(logger, r)
		defer r.Body.Close()

		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
			return
		}
		defer file.Close()

		cols := lineColumnsFromForm(r)
		maps, err := fileio.ReadTable(file, header.Filename, cols.HeaderRow)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
			return
		}

		lines := toOrderLines(maps, cols, r.FormValue("client_id"))
		if len(lines) == 0 {
			writeError(w, http.StatusBadRequest, "no usable rows in file")
			return
		}

		results := res.ResolveBatch(r.Context(), lines, cfg.Workers)
		writeJSON(w, http.StatusOK, map[string]any{
			"lines":   lines,
			"results": results,
		})
		log.Info().
			Str("file", header.Filename).
			Int("rows", len(maps)).
			Int("lines", len(lines)).
			Dur("elapsed", time.Since(start)).
			Msg("resolve file done")
	}
}

// RefreshCatalog перестраивает индекс каталога из загруженного файла.
// При ошибке сборки предыдущий снапшот остаётся рабочим.
func RefreshCatalog(cfg config.Config, logger zerolog.Logger, res *service.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(logger, r)
		defer r.Body.Close()

		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
			return
		}
		defer file.Close()

		cols := catalog.DefaultColumns()
		if v := r.FormValue("sku_col"); v != "" {
			cols.Sku = v
		}
		if v := r.FormValue("name_col"); v != "" {
			cols.Name = v
		}
		if v := r.FormValue("category_col"); v != "" {
			cols.Category = v
		}
		cols.HeaderRow = atoi(r.FormValue("header_row"), cols.HeaderRow)

		entries, err := catalog.Read(file, header.Filename, cols)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read catalog: "+err.Error())
			return
		}
		if err := res.SwapCatalog(entries); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "catalog rejected: "+err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"entries": len(entries)})
		log.Info().
			Str("file", header.Filename).
			Int("entries", len(entries)).
			Dur("elapsed", time.Since(start)).
			Msg("catalog refreshed")
	}
}

// ImportMappings загружает подтверждённые маппинги клиентов из файла.
func ImportMappings(cfg config.Config, logger zerolog.Logger, store *mapping.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(logger, r)
		defer r.Body.Close()

		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
			return
		}
		defer file.Close()

		maps, err := fileio.ReadTable(file, header.Filename, atoi(r.FormValue("header_row"), 1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
			return
		}

		ms := toMappings(maps, r.FormValue("client_id"))
		imported := store.Import(ms)

		writeJSON(w, http.StatusOK, map[string]any{
			"rows":     len(maps),
			"imported": imported,
			"total":    store.Size(),
		})
		log.Info().
			Str("file", header.Filename).
			Int("imported", imported).
			Dur("elapsed", time.Since(start)).
			Msg("mappings imported")
	}
}

// Proposals отдаёт накопленные автоматические предложения маппингов.
func Proposals(logger zerolog.Logger, store *mapping.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Proposals())
	}
}

// Stats отдаёт агрегаты по разрешённым позициям с момента старта
// или последнего сброса.
func Stats(res *service.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, res.Stats().Snapshot())
	}
}

// ResetStats обнуляет счётчики.
func ResetStats(logger zerolog.Logger, res *service.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res.Stats().Reset()
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
		lg := reqLogger(logger, r)
		lg.Info().Msg("stats reset")
	}
}

// Привязываем req_id из заголовка, если middleware его проставил.
func reqLogger(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return logger.With().Str("req_id", reqID).Logger()
	}
	return logger
}
