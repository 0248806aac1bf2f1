/*
包 server 管理 HTTP 服务器的生命周期。

# 概述

Manager 封装 net/http.Server，统一监听、服务与优雅关闭。
cogniflow 进程持有两个 Manager：工具面（/v1/tools、/v1/ws、健康检查）
与 Prometheus 指标端口。

# 主要能力

  - Start：非阻塞启动，监听失败立即返回。
  - Run：阻塞到 ctx 取消后优雅关闭，可直接放入 errgroup。
  - Shutdown：在 ShutdownTimeout 内排空请求，可重复调用。
  - Errors：异步服务错误通道。
  - Addr：启动后返回实际监听地址（支持 ":0" 随机端口）。
*/
package server
