package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry        = (*OperationRegistry)(nil)
	_ Guard           = (*ApprovalGuard)(nil)
	_ Guard           = (*VersionGate)(nil)
	_ Describer       = (*ApprovalGuard)(nil)
	_ Describer       = (*VersionGate)(nil)
	_ GuardObserver   = (*Service)(nil)
	_ GuardEventStore = (*MemoryGuardEventStore)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
