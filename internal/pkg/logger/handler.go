package logger

import (
	"context"
	log "log/slog"
)

// fanoutHandler 同一条记录写往多个下游，任一下游启用即视为启用
type fanoutHandler struct {
	handlers []log.Handler
}

func newFanoutHandler(handlers ...log.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (s *fanoutHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range s.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s *fanoutHandler) Handle(ctx context.Context, r log.Record) error {
	var firstErr error
	for _, h := range s.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *fanoutHandler) WithAttrs(attrs []log.Attr) log.Handler {
	next := make([]log.Handler, len(s.handlers))
	for i, h := range s.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (s *fanoutHandler) WithGroup(name string) log.Handler {
	next := make([]log.Handler, len(s.handlers))
	for i, h := range s.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// shipFilterHandler 远程上报过滤：带 trace_id 的请求/事件/任务日志全部上报，
// 其余只上报 Warn 及以上（启动失败、调度异常等）
type shipFilterHandler struct {
	next log.Handler
}

func (s *shipFilterHandler) Enabled(ctx context.Context, level log.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s *shipFilterHandler) Handle(ctx context.Context, r log.Record) error {
	if r.Level >= log.LevelWarn || hasTraceID(r) {
		return s.next.Handle(ctx, r)
	}
	return nil
}

func (s *shipFilterHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &shipFilterHandler{next: s.next.WithAttrs(attrs)}
}

func (s *shipFilterHandler) WithGroup(name string) log.Handler {
	return &shipFilterHandler{next: s.next.WithGroup(name)}
}

func hasTraceID(r log.Record) bool {
	found := false
	r.Attrs(func(a log.Attr) bool {
		if a.Key == TraceIDKey && a.Value.String() != "" {
			found = true
			return false
		}
		return true
	})
	return found
}
