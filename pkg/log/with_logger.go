package log

import "go.uber.org/atomic"

// Binder 嵌入到导航器、注册表等组件中，提供可替换的 Logger。
// 未绑定时使用全局 Logger，并附带 SetComponent 设置的组件名。
type Binder struct {
	logger    atomic.Pointer[MLogger]
	component atomic.String
}

// SetLogger 绑定组件专用的 Logger。
func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

// SetComponent 设置未绑定 Logger 时附加的 component 字段。
func (w *Binder) SetComponent(name string) {
	w.component.Store(name)
}

func (w *Binder) Logger() *MLogger {
	if l := w.logger.Load(); l != nil {
		return l
	}
	if name := w.component.Load(); name != "" {
		return With(FieldComponent(name))
	}
	return With()
}
