package templates

// Login page. The key is only sent to this server, which keeps it sealed
// for the lifetime of the session.
var LoginTemplate = `{{define "content"}}
<section class="login">
  <h2>Sign in</h2>
  <form method="POST" action="/login" class="login-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="return_url" value="{{.ReturnURL}}">
    <label for="secret">Secret key (nsec or hex)</label>
    <input type="password" id="secret" name="secret" autocomplete="off" required>
    <button type="submit" class="btn-primary">Sign in</button>
  </form>
  <p class="text-muted text-xs">Your key is encrypted at rest and forgotten when you sign out or the session expires.</p>
</section>
{{end}}`
