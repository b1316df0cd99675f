package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateClass": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		}
		return "unknown"
	},
	"fixed": func(v float64, decimals int) string {
		return fmt.Sprintf("%.*f", decimals, v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.Device}} · BMI160</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: red; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>{{.Config.Device}}{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Alerts</h2>
<table>
<tr><th>Tilt</th><td id="tilt-state" class="{{stateClass .TiltState}}">{{.TiltState}}</td></tr>
<tr><th>Motion</th><td id="motion-state" class="{{stateClass .MotionState}}">{{.MotionState}}</td></tr>
<tr><th>Ready</th><td>{{if .HaveReading}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Orientation</h2>
<table>
<tr><th>Pitch</th><td><span id="pitch">{{fixed .Reading.Orientation.Pitch 1}}</span> °</td></tr>
<tr><th>Roll</th><td><span id="roll">{{fixed .Reading.Orientation.Roll 1}}</span> °</td></tr>
<tr><th>Inclination</th><td><span id="inclination">{{fixed .Reading.Orientation.Inclination 1}}</span> °</td></tr>
<tr><th>Vibration</th><td><span id="vibration">{{fixed .Reading.Vibration 3}}</span> m/s²</td></tr>
<tr><th>Temperature</th><td>{{fixed .Reading.Sample.Temperature 1}} °C</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
<tr><th>Bus errors</th><td>{{.Bus.Errors}}{{if .Bus.LastError}} ({{.Bus.LastError}}){{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>TILT ON</th><td>{{.Counts.TiltOn}}</td></tr>
<tr><th>TILT OFF</th><td>{{.Counts.TiltOff}}</td></tr>
<tr><th>MOTION ON</th><td>{{.Counts.MotionOn}}</td></tr>
<tr><th>MOTION OFF</th><td>{{.Counts.MotionOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Session</th><td>{{.Session}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Tilt threshold</th><td>{{.Config.TiltThresholdDeg}}° ({{.Config.TiltSource}})</td></tr>
<tr><th>Motion threshold</th><td>{{.Config.MotionThresholdMS2}} m/s²</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/history.json">History</a></p>
{{if .Live}}
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var tiltEl = document.getElementById("tilt-state");
  var motionEl = document.getElementById("motion-state");
  var fields = ["pitch", "roll", "inclination", "vibration"];

  function setState(el, state) {
    el.textContent = state;
    el.className = state === "ON" ? "on" : state === "OFF" ? "off" : "unknown";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var f = JSON.parse(ev.data);
        fields.forEach(function(k) {
          document.getElementById(k).textContent = f[k].toFixed(k === "vibration" ? 3 : 1);
        });
        setState(tiltEl, f.tilt);
        setState(motionEl, f.motion);
      } catch (e) {}
    };
  }
  connect();
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, live bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Live   bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Live:     live,
	}
	indexTmpl.Execute(w, data)
}
