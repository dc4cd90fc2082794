package spatial

import "time"

// Output-route adaptation: when the platform reports a device change the
// engine re-evaluates the preferred output and, if the route identity or
// wireless state actually moved, notifies the listener and rebinds any
// in-flight playback onto the new device. Rebinds are rate-limited to avoid
// thrashing while the platform settles.

// evaluateRoute picks the preferred output device: the first wireless device
// when wireless is preferred, otherwise the platform default, otherwise the
// first enumerated device. An enumeration failure or empty device list
// yields the zero route (sink default).
func (e *Engine) evaluateRoute() RouteState {
	devices, err := e.sink.Devices()
	if err != nil || len(devices) == 0 {
		return RouteState{}
	}

	if e.cfg.PreferWireless {
		for _, d := range devices {
			if d.Wireless {
				return RouteState{DeviceID: d.ID, Name: d.Name, Wireless: true}
			}
		}
	}
	for _, d := range devices {
		if d.Default {
			return RouteState{DeviceID: d.ID, Name: d.Name, Wireless: d.Wireless}
		}
	}
	d := devices[0]
	return RouteState{DeviceID: d.ID, Name: d.Name, Wireless: d.Wireless}
}

func (e *Engine) preferredDeviceID() string {
	e.routeMu.Lock()
	defer e.routeMu.Unlock()
	return e.route.DeviceID
}

// onRouteChange handles a platform device-change notification.
func (e *Engine) onRouteChange() {
	next := e.evaluateRoute()

	e.routeMu.Lock()
	changed := next.DeviceID != e.route.DeviceID || next.Wireless != e.route.Wireless
	if !changed {
		e.routeMu.Unlock()
		return
	}
	if time.Since(e.lastRebind) < e.cfg.RebindCooldown {
		e.routeMu.Unlock()
		e.log.Debug("route change suppressed by cooldown", "device", next.Name)
		return
	}
	e.route = next
	e.lastRebind = time.Now()
	listener := e.routeListener
	activePCM := e.activePCM
	activeRate := e.activeRate
	if len(activePCM) > 0 && !time.Now().Before(e.activeUntil) {
		// The last cue already ran out; nothing to carry to the new device.
		e.activePCM = nil
		activePCM = nil
	}
	e.routeMu.Unlock()

	e.log.Info("output route changed", "device", next.Name, "wireless", next.Wireless)
	e.metrics.RecordRouteRebind()

	if listener != nil {
		listener(next)
	}

	// Re-bind the in-flight cue onto the new device from the start.
	if len(activePCM) > 0 {
		e.sink.Stop()
		if err := e.sink.Play(activePCM, activeRate, next.DeviceID); err != nil {
			e.metrics.RecordCueFailure("rebind")
			e.log.Warn("route rebind playback failed", "device", next.Name, "error", err)
		}
	}
}
