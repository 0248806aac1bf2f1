/*
包 cache 封装 go-redis 客户端，为快照存储等组件提供带键前缀的字节读写、
连接池配置、后台健康检查与优雅关闭。

  - Manager：持有 Redis 客户端，Get/Set/Delete/Ping/Close。
  - Config：地址、密码、DB、键前缀、默认 TTL（0 为不过期）、连接池与健康检查间隔。
  - ErrCacheMiss / ErrClosed：哨兵错误，配合 errors.Is 使用。
*/
package cache
