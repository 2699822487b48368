package handlers

import "net/http"

// DashboardHandler serves the management dashboard HTML page.
func DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(dashboardHTML))
	}
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Cafe24 Auth Hub</title>
<style>
	body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 900px; margin: 30px auto; padding: 0 20px; background: #1a1a2e; color: #eee; }
	h1 { color: #fbbf24; }
	h2 { color: #9ca3af; border-bottom: 1px solid #374151; padding-bottom: 6px; }
	section { margin-bottom: 28px; }
	label { display: block; margin: 10px 0 4px; color: #9ca3af; font-size: 14px; }
	input[type=text], input[type=password] { width: 100%; padding: 8px; border-radius: 6px; border: 1px solid #374151; background: #111827; color: #eee; box-sizing: border-box; }
	button { margin: 6px 6px 0 0; padding: 8px 14px; border: none; border-radius: 6px; background: #2563eb; color: #fff; cursor: pointer; }
	button.danger { background: #b91c1c; }
	button:hover { opacity: .9; }
	table { width: 100%; border-collapse: collapse; margin-top: 10px; font-size: 14px; }
	th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #374151; }
	code { background: #374151; padding: 2px 6px; border-radius: 4px; color: #fbbf24; }
	#output { background: #111827; border: 1px solid #374151; border-radius: 6px; padding: 12px; white-space: pre-wrap; font-family: monospace; font-size: 13px; min-height: 60px; }
	.ok { color: #4ade80; }
	.bad { color: #f87171; }
</style>
</head>
<body>
<h1>🔐 Cafe24 Auth Hub</h1>

<section>
	<h2>Settings</h2>
	<label>App URL</label><input type="text" id="app_url" placeholder="https://yourshop.cafe24.com">
	<label>Client ID</label><input type="text" id="client_id">
	<label>Client Secret</label><input type="password" id="client_secret">
	<label>Service Key</label><input type="password" id="service_key">
	<label>Redirect URI (optional, defaults to this host)</label><input type="text" id="redirect_uri">
	<button onclick="saveConfig()">Save Settings</button>
</section>

<section>
	<h2>Authorization &amp; Token</h2>
	<button onclick="startAuth()">Start Authorization</button>
	<button onclick="refreshToken()">Refresh Token</button>
	<button onclick="tokenStatus()">Token Status</button>
	<button onclick="testAPI()">Test API Call</button>
</section>

<section>
	<h2>Accounts</h2>
	<button onclick="loadAccounts()">Reload</button>
	<table id="accounts"><thead><tr><th>Shop</th><th>Token</th><th>Expires</th><th></th></tr></thead><tbody></tbody></table>
</section>

<section>
	<h2>Refresh History</h2>
	<button onclick="loadHistory()">Reload</button>
	<table id="history"><thead><tr><th>When</th><th>Shop</th><th>Trigger</th><th>Outcome</th><th>Detail</th></tr></thead><tbody></tbody></table>
</section>

<section>
	<h2>Output</h2>
	<div id="output">Ready.</div>
</section>

<script>
function show(v) {
	document.getElementById('output').textContent = typeof v === 'string' ? v : JSON.stringify(v, null, 2);
}
async function api(path, opts) {
	const res = await fetch(path, opts);
	const data = await res.json().catch(() => ({}));
	show(data);
	return data;
}
async function loadConfig() {
	const res = await fetch('/api/config');
	const cfg = await res.json();
	for (const k of ['client_id', 'client_secret', 'service_key', 'redirect_uri']) {
		if (cfg[k]) document.getElementById(k).value = cfg[k];
	}
	if (cfg.shop_id) document.getElementById('app_url').value = 'https://' + cfg.shop_id + '.cafe24.com';
}
function saveConfig() {
	api('/api/config', { method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({
		app_url: document.getElementById('app_url').value,
		client_id: document.getElementById('client_id').value,
		client_secret: document.getElementById('client_secret').value,
		service_key: document.getElementById('service_key').value,
		redirect_uri: document.getElementById('redirect_uri').value
	})}).then(loadAccounts);
}
async function startAuth() {
	const data = await api('/api/auth/start');
	if (data.auth_url) window.open(data.auth_url, '_blank');
}
function refreshToken() { api('/api/token/refresh', { method: 'POST' }).then(loadAccounts); }
function tokenStatus() { api('/api/token/status'); }
function testAPI() {
	const endpoint = prompt('Admin endpoint', '/api/v2/admin/products');
	if (endpoint) api('/api/test', { method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({ endpoint }) });
}
async function loadAccounts() {
	const res = await fetch('/api/accounts');
	const data = await res.json();
	const tbody = document.querySelector('#accounts tbody');
	tbody.innerHTML = '';
	for (const a of data.accounts || []) {
		const tr = document.createElement('tr');
		const expires = a.expires_at ? new Date(a.expires_at * 1000).toLocaleString() : '-';
		const token = a.has_token ? (a.needs_reauth ? '<span class="bad">re-auth needed</span>' : '<span class="ok">yes</span>') : 'no';
		tr.innerHTML = '<td>' + (a.is_current ? '★ ' : '') + a.shop_id + '</td><td>' + token + '</td><td>' + expires + '</td>' +
			'<td><button onclick="selectAccount(\'' + a.shop_id + '\')">Select</button>' +
			'<button class="danger" onclick="deleteAccount(\'' + a.shop_id + '\')">Delete</button></td>';
		tbody.appendChild(tr);
	}
}
function selectAccount(id) { api('/api/accounts/' + id + '/select', { method: 'POST' }).then(loadAccounts); }
function deleteAccount(id) {
	if (confirm('Delete account ' + id + '?')) api('/api/accounts/' + id, { method: 'DELETE' }).then(loadAccounts);
}
async function loadHistory() {
	const res = await fetch('/api/history');
	const data = await res.json();
	const tbody = document.querySelector('#history tbody');
	tbody.innerHTML = '';
	for (const h of data.history || []) {
		const tr = document.createElement('tr');
		const cls = h.outcome === 'ok' ? 'ok' : 'bad';
		tr.innerHTML = '<td>' + new Date(h.created_at).toLocaleString() + '</td><td>' + h.shop_id + '</td><td>' + h.trigger +
			'</td><td class="' + cls + '">' + h.outcome + (h.status ? ' (' + h.status + ')' : '') + '</td><td>' + (h.detail || '') + '</td>';
		tbody.appendChild(tr);
	}
}
loadConfig(); loadAccounts(); loadHistory();
</script>
</body>
</html>`
