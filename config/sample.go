package config

// Sample is emitted by `mqttwarn config sample` (SPEC_FULL.md §6, §10.1);
// it documents every option this implementation understands.
const Sample = `; mqttwarn sample configuration
; path resolution: $MQTTWARNINI, then --config flag, then ` + DefaultConfigPath + `

[defaults]
hostname      = localhost
port          = 1883
; username    =
; password    =
client_id     = mqttwarn
lwt           = clients/mqttwarn
skipretained  = false
clean_session = true
protocol      = 4
transport     = tcp
logformat     = console
loglevel      = info
num_workers   = 1
launch        = log, file

; tls          = false
; ca_certs     = /etc/ssl/certs/ca-certificates.crt
; certfile     =
; keyfile      =
; tls_version  = tlsv1_2
; tls_insecure = false

; admin_addr  = 127.0.0.1:9980

[config:log]
module  = log
targets = {info: [log, info], warn: [log, warn]}

[config:file]
module  = file
targets = {outbox: [/var/log/mqttwarn/outbox.log]}

[config:pipe]
module  = pipe
targets = {alert: ['mail -s alert root@localhost']}

[config:httpsink]
module  = httpsink
method  = POST
targets = {webhook: [https://example.invalid/notify]}

[config:smtp]
module   = smtp
server   = smtp.example.invalid:587
username = mqttwarn@example.invalid
targets  = {ops: [ops@example.invalid]}

[config:db]
module  = db
driver  = sqlite
dsn     = mqttwarn.db
targets = {default: []}

[config:wsfeed]
module  = wsfeed
targets = {default: []}

[failover]
targets = {alert: [log, warn]}

[sensors/+/temp]
targets  = log:info
format   = {_dtiso} {topic} = {payload}

[cron:heartbeat]
target   = mqttwarn_hooks.sample:heartbeat()
interval = 60
now      = true
`
