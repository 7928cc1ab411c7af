// Package eino 注册 Eino 模型调用的全局观测回调。
// 每次问答只发起一次 Generate，这里只为这次调用补追踪 Span；
// 调用时延与 Token 指标由回答组装器在调用点直接上报。
package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var initOnce sync.Once

// Init 注册 Eino 全局 callbacks（进程级一次），在依赖装配前调用。
func Init() {
	initOnce.Do(func() {
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
	})
}
