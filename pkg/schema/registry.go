package schema

import "github.com/sqlog/sqlog/pkg/types"

// Default returns the registry for the standard logs schema: fourteen
// columns covering event time, logger identity, call site, process and
// thread identity, the rendered message, and the optional captured
// failure. ExceptionType and TraceBack yield nil when the record
// carries no failure.
func Default() *Registry {
	r, err := NewRegistry([]Column{
		{Name: "Time", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.Time.Local().Format(TimeLayout), nil
		}},
		{Name: "LoggerName", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.LoggerName, nil
		}},
		{Name: "Level", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.Level.String(), nil
		}},
		{Name: "FileName", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.FileName, nil
		}},
		{Name: "LineNo", Type: TypeInteger, Extract: func(rec *types.Record) (any, error) {
			return rec.LineNo, nil
		}},
		{Name: "ModuleName", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.ModuleName, nil
		}},
		{Name: "FuncName", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.FuncName, nil
		}},
		{Name: "ProcessID", Type: TypeInteger, Extract: func(rec *types.Record) (any, error) {
			return rec.ProcessID, nil
		}},
		{Name: "ProcessName", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.ProcessName, nil
		}},
		{Name: "ThreadID", Type: TypeInteger, Extract: func(rec *types.Record) (any, error) {
			return rec.ThreadID, nil
		}},
		{Name: "ThreadName", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.ThreadName, nil
		}},
		{Name: "LogMessage", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			return rec.Message, nil
		}},
		{Name: "ExceptionType", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			if rec.Failure == nil {
				return nil, nil
			}
			return rec.Failure.Kind, nil
		}},
		{Name: "TraceBack", Type: TypeText, Extract: func(rec *types.Record) (any, error) {
			if rec.Failure == nil {
				return nil, nil
			}
			return rec.Failure.Traceback(), nil
		}},
	})
	if err != nil {
		// The default column list is fixed at compile time; a
		// constraint violation here is a programming error.
		panic(err)
	}
	return r
}
